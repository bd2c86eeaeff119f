package guardian

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
)

// Tag identifies a YAML document as a battery guardian configuration.
const Tag = "!BatteryGuardian"

const (
	SectionBatteryLimit  = "battery_limit_config"
	SectionCheck         = "check_config"
	SectionRemoteRequest = "remote_request_config"
)

var knownSections = map[string]bool{
	SectionBatteryLimit:  true,
	SectionCheck:         true,
	SectionRemoteRequest: true,
}

// Document is the serializable form of Settings.
// Nil sections and fields fall back to their defaults when loaded.
type Document struct {
	BatteryLimit  *BatteryLimitSection  `yaml:"battery_limit_config,omitempty"`
	Check         *CheckSection         `yaml:"check_config,omitempty"`
	RemoteRequest *RemoteRequestSection `yaml:"remote_request_config,omitempty"`
}

type BatteryLimitSection struct {
	Charged *int `yaml:"charged,omitempty"`
	Low     *int `yaml:"low,omitempty"`
}

type CheckSection struct {
	CheckInterval *int `yaml:"check_interval,omitempty"`
}

// RemoteRequestSection configures the HTTP reaction. Fields are kept in
// alphabetical order so dumps are stable.
type RemoteRequestSection struct {
	RemoteAddress      *string              `yaml:"remote_address,omitempty"`
	RequestDataMapping request.ValueMapping `yaml:"request_data_mapping"`
	RequestMethod      *string              `yaml:"request_method,omitempty"`
	RequestTemplate    *string              `yaml:"request_template,omitempty"`
}

// ParseDocument decodes a tagged or untagged YAML configuration document.
func ParseDocument(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, configErrorf(err, "parse document")
	}
	if len(root.Content) == 0 {
		return Document{}, configErrorf(nil, "the document is empty")
	}

	node := root.Content[0]
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return Document{}, configErrorf(nil, "the document is empty")
	}
	if node.Kind != yaml.MappingNode {
		return Document{}, configErrorf(nil, "top level must be a mapping")
	}
	switch node.Tag {
	case Tag, "!!map":
	default:
		return Document{}, configErrorf(nil, "unsupported document tag %q", node.Tag)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !knownSections[key] {
			return Document{}, configErrorf(nil, "unknown section %q", key)
		}
	}

	plain := *node
	plain.Tag = "!!map"
	var doc Document
	if err := plain.Decode(&doc); err != nil {
		return Document{}, configErrorf(err, "decode document")
	}
	return doc, nil
}

// MarshalDocument encodes doc as a tagged YAML document with two-space indentation.
func MarshalDocument(doc Document) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	node.Tag = Tag

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush document: %w", err)
	}
	return buf.Bytes(), nil
}

// FromDocument validates doc and builds Settings from it.
func FromDocument(doc Document, logger *slog.Logger) (*Settings, error) {
	rr := doc.RemoteRequest
	if rr == nil {
		return nil, configErrorf(nil, "at least one reaction config is required, available: %s", SectionRemoteRequest)
	}
	switch {
	case rr.RemoteAddress == nil:
		return nil, configErrorf(nil, "missing %s.remote_address", SectionRemoteRequest)
	case rr.RequestMethod == nil:
		return nil, configErrorf(nil, "missing %s.request_method", SectionRemoteRequest)
	case rr.RequestTemplate == nil:
		return nil, configErrorf(nil, "missing %s.request_template", SectionRemoteRequest)
	}

	s := newSettings(logger)
	steps := []func() error{
		func() error { return s.SetRemoteAddress(*rr.RemoteAddress) },
		func() error { return s.SetRequestMethod(*rr.RequestMethod) },
		func() error { return s.SetRequestTemplate(*rr.RequestTemplate) },
		func() error { return s.SetRequestDataMapping(rr.RequestDataMapping) },
	}
	if bl := doc.BatteryLimit; bl != nil {
		if bl.Charged != nil {
			steps = append(steps, func() error { return s.SetChargedLimit(*bl.Charged) })
		}
		if bl.Low != nil {
			steps = append(steps, func() error { return s.SetLowLimit(*bl.Low) })
		}
	}
	if cc := doc.Check; cc != nil && cc.CheckInterval != nil {
		steps = append(steps, func() error { return s.SetCheckInterval(*cc.CheckInterval) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, configErrorf(err, "validate fields")
		}
	}
	return s, nil
}

// Document returns the serializable form of the current settings.
func (s *Settings) Document() Document {
	thresholds := s.Thresholds()
	interval := s.CheckIntervalSeconds()
	target := s.Target()
	return Document{
		BatteryLimit: &BatteryLimitSection{
			Charged: &thresholds.Charged,
			Low:     &thresholds.Low,
		},
		Check: &CheckSection{CheckInterval: &interval},
		RemoteRequest: &RemoteRequestSection{
			RemoteAddress:      &target.Address,
			RequestDataMapping: target.Mapping,
			RequestMethod:      &target.Method,
			RequestTemplate:    &target.Template,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string, logger *slog.Logger) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "read file", Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	s, err := FromDocument(doc, logger)
	if err != nil {
		return nil, withPath(err, path)
	}
	return s, nil
}

// Dump writes the current settings to path.
func Dump(s *Settings, path string) error {
	data, err := MarshalDocument(s.Document())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	return nil
}

func withPath(err error, path string) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Path == "" {
		cfgErr.Path = path
	}
	return err
}
