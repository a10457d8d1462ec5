// Package validate applies a resource's declarative field rules to a
// submitted document. The same rules run on create and on the merged
// document of a partial update.
package validate

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
)

// FieldError reports one rule violation, itemized per offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Record checks body against the resource's field rules. The returned
// error, when non-nil, is a *multierror.Error of *FieldError values.
func Record(res *resource.Resource, body map[string]any) error {
	var result *multierror.Error

	for name := range body {
		if res.GetFieldRule(name) == nil {
			result = multierror.Append(result, &FieldError{Field: name, Message: "unknown field"})
		}
	}

	for name, rule := range res.Fields {
		val, present := body[name]
		if !present || val == nil {
			if rule.Required {
				result = multierror.Append(result, &FieldError{Field: name, Message: "is required"})
			}
			continue
		}
		if err := checkValue(name, rule, val); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func checkValue(name string, rule *resource.FieldRule, val any) error {
	switch rule.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			return &FieldError{Field: name, Message: "must be a string"}
		}
		if rule.Required && strings.TrimSpace(s) == "" {
			return &FieldError{Field: name, Message: "must not be empty"}
		}
		if rule.Max > 0 && len([]rune(s)) > rule.Max {
			return &FieldError{Field: name, Message: fmt.Sprintf("must be at most %d characters", rule.Max)}
		}
		if len(rule.Enum) > 0 && !contains(rule.Enum, s) {
			return &FieldError{Field: name, Message: "must be one of: " + strings.Join(rule.Enum, ", ")}
		}
	case "bool":
		if _, ok := val.(bool); !ok {
			return &FieldError{Field: name, Message: "must be a boolean"}
		}
	case "number":
		switch val.(type) {
		case float64, int, int64: // json decodes numbers as float64
		default:
			return &FieldError{Field: name, Message: "must be a number"}
		}
	case "array":
		if _, ok := val.([]any); !ok {
			return &FieldError{Field: name, Message: "must be an array"}
		}
	}
	return nil
}

// Normalize applies declarative normalization in place, currently the
// upper-casing of fields such as the branch code.
func Normalize(res *resource.Resource, body map[string]any) {
	for name, rule := range res.Fields {
		if !rule.Uppercase {
			continue
		}
		if s, ok := body[name].(string); ok {
			body[name] = strings.ToUpper(s)
		}
	}
}

// ApplyDefaults injects declared default values for absent fields.
func ApplyDefaults(res *resource.Resource, body map[string]any) {
	for name, rule := range res.Fields {
		if rule.Default == nil {
			continue
		}
		if _, present := body[name]; !present {
			body[name] = rule.Default
		}
	}
}

// Messages flattens a validation error into per-field messages.
func Messages(err error) []string {
	merr, ok := err.(*multierror.Error)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
