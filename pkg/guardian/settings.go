package guardian

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
)

const (
	LimitMin = 0
	LimitMax = 100

	DefaultChargedLimit  = 90
	DefaultLowLimit      = 40
	DefaultCheckInterval = 60 // seconds
)

// Settings is the validated, mutable configuration of an engine.
// Setters log every accepted change and may be called between check cycles;
// the new values are used from the next cycle on.
type Settings struct {
	mu            sync.RWMutex
	thresholds    model.Thresholds
	checkInterval int
	target        request.Target
	requestKeys   []string
	logger        *slog.Logger
}

func newSettings(logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Settings{
		thresholds:    model.Thresholds{Charged: DefaultChargedLimit, Low: DefaultLowLimit},
		checkInterval: DefaultCheckInterval,
		target:        request.Target{Mapping: request.ValueMapping{}},
		logger:        logger,
	}
}

// Thresholds returns the current battery limits.
func (s *Settings) Thresholds() model.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// CheckInterval returns the time between two scheduled checks.
func (s *Settings) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalSeconds()) * time.Second
}

// CheckIntervalSeconds returns the check interval as configured.
func (s *Settings) CheckIntervalSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkInterval
}

// Target returns a copy of the remote request configuration.
func (s *Settings) Target() request.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.target
	t.Mapping = cloneMapping(s.target.Mapping)
	return t
}

// RequestKeys returns the recognized placeholders of the request template.
func (s *Settings) RequestKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.requestKeys...)
}

// SetChargedLimit sets the level above which charging should stop.
func (s *Settings) SetChargedLimit(value int) error {
	if err := validateLimit("battery_limit_charged", value); err != nil {
		return err
	}
	s.mu.Lock()
	s.thresholds.Charged = value
	s.mu.Unlock()
	s.logSet("battery_limit_charged", value)
	return nil
}

// SetLowLimit sets the level below which charging should start.
func (s *Settings) SetLowLimit(value int) error {
	if err := validateLimit("battery_limit_low", value); err != nil {
		return err
	}
	s.mu.Lock()
	s.thresholds.Low = value
	s.mu.Unlock()
	s.logSet("battery_limit_low", value)
	return nil
}

// SetCheckInterval sets the number of seconds between checks.
func (s *Settings) SetCheckInterval(seconds int) error {
	if seconds <= 0 {
		return &ValidationError{Field: "check_interval", Value: seconds, Reason: "must be a positive number of seconds"}
	}
	s.mu.Lock()
	s.checkInterval = seconds
	s.mu.Unlock()
	s.logSet("check_interval", seconds)
	return nil
}

// SetRemoteAddress sets the remote controller address without trailing slashes.
func (s *Settings) SetRemoteAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return &ValidationError{Field: "remote_address", Value: address, Reason: "must not be empty"}
	}
	address = request.TrimAddress(address)
	s.mu.Lock()
	s.target.Address = address
	s.mu.Unlock()
	s.logSet("remote_address", address)
	return nil
}

// SetRequestTemplate sets the URL path template and re-parses its placeholders.
func (s *Settings) SetRequestTemplate(template string) error {
	keys := request.ParsePlaceholders(template)
	s.mu.Lock()
	s.target.Template = template
	s.requestKeys = keys
	s.mu.Unlock()
	s.logSet("request_template", template)
	return nil
}

// SetRequestMethod sets the HTTP method of the requests.
func (s *Settings) SetRequestMethod(method string) error {
	if method == "" || strings.ContainsAny(method, " \t\r\n") {
		return &ValidationError{Field: "request_method", Value: method, Reason: "must be a single HTTP method token"}
	}
	s.mu.Lock()
	s.target.Method = method
	s.mu.Unlock()
	s.logSet("request_method", method)
	return nil
}

// SetRequestDataMapping sets the table used to remap placeholder values.
func (s *Settings) SetRequestDataMapping(mapping request.ValueMapping) error {
	mapping = cloneMapping(mapping)
	s.mu.Lock()
	s.target.Mapping = mapping
	s.mu.Unlock()
	s.logSet("request_data_mapping", mapping)
	return nil
}

func (s *Settings) logSet(property string, value any) {
	s.logger.Info("property set", "property", property, "value", value)
}

func validateLimit(field string, value int) error {
	if value < LimitMin || value > LimitMax {
		return &ValidationError{Field: field, Value: value, Reason: "must be between 0 and 100"}
	}
	return nil
}

func cloneMapping(m request.ValueMapping) request.ValueMapping {
	out := make(request.ValueMapping, len(m))
	for key, sub := range m {
		inner := make(map[any]any, len(sub))
		for raw, mapped := range sub {
			inner[raw] = mapped
		}
		out[key] = inner
	}
	return out
}
