// Package request renders charging intents into concrete HTTP requests.
package request

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
)

// placeholderPattern matches the thing between curly brackets.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// RecognizedKeys lists the placeholders the engine knows how to fill.
var RecognizedKeys = []string{model.KeyNeedsCharging}

// ValueMapping replaces raw placeholder values, keyed by placeholder name and then by raw value.
type ValueMapping map[string]map[any]any

// Target describes the remote controller and the shape of its requests.
type Target struct {
	Address  string
	Method   string
	Template string
	Mapping  ValueMapping
}

// Request is a fully rendered HTTP request line.
type Request struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// TemplateError reports a template placeholder with no value to substitute.
type TemplateError struct {
	Template    string
	Placeholder string
}

func (e *TemplateError) Error() string {
	if e.Placeholder == "" {
		return fmt.Sprintf("request template %q: malformed placeholder", e.Template)
	}
	return fmt.Sprintf("request template %q: no value for placeholder %q", e.Template, e.Placeholder)
}

// ParsePlaceholders returns the recognized placeholder names used by template,
// in order of appearance. Unrecognized placeholders are ignored.
func ParsePlaceholders(template string) []string {
	var keys []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if isRecognized(name) {
			keys = append(keys, name)
		}
	}
	return keys
}

// TrimAddress strips every trailing slash from a remote address.
func TrimAddress(address string) string {
	return strings.TrimRight(address, "/")
}

// Remap applies mapping to values and returns a new map.
// Only recognized keys are remapped; values missing from the mapping are kept raw.
func Remap(values map[string]any, mapping ValueMapping) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
		if !isRecognized(key) {
			continue
		}
		sub, ok := mapping[key]
		if !ok || !hashable(value) {
			continue
		}
		if mapped, ok := sub[value]; ok {
			out[key] = mapped
		}
	}
	return out
}

// Build remaps values, renders the template and appends it to the target address.
func Build(values map[string]any, target Target) (Request, error) {
	path, err := Render(target.Template, Remap(values, target.Mapping))
	if err != nil {
		return Request{}, err
	}
	return Request{
		Method: target.Method,
		URL:    TrimAddress(target.Address) + path,
	}, nil
}

// Render substitutes every {name} placeholder of template with its value.
// Doubled braces produce literal braces. No URL encoding is performed.
func Render(template string, values map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Template: template}
			}
			name := template[i+1 : i+1+end]
			value, ok := values[name]
			if !ok {
				return "", &TemplateError{Template: template, Placeholder: name}
			}
			b.WriteString(formatValue(value))
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Template: template}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func isRecognized(key string) bool {
	for _, k := range RecognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// hashable guards map lookups against unhashable values.
func hashable(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any, []any:
		return false
	}
	return true
}
