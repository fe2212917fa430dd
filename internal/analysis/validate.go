package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Defaults returns the documented initial form state for f.
func Defaults(f Feature) models.AnalysisRequest {
	fields := make(map[string]any, len(f.Fields))
	for _, fd := range f.Fields {
		switch fd.Kind {
		case FieldList:
			var list []string
			if d, ok := fd.Default.([]string); ok {
				list = slices.Clone(d)
			}
			if list == nil {
				list = []string{}
			}
			fields[fd.Key] = list
		default:
			s, _ := fd.Default.(string)
			fields[fd.Key] = s
		}
	}
	return models.AnalysisRequest{Fields: fields}
}

// Normalize trims text, coerces list inputs to []string and fills unset
// fields with their defaults. Keys outside the schema are passed through.
func Normalize(f Feature, req models.AnalysisRequest) models.AnalysisRequest {
	out := models.AnalysisRequest{
		CompanyName: strings.TrimSpace(req.CompanyName),
		Industry:    strings.TrimSpace(req.Industry),
		Fields:      make(map[string]any, len(req.Fields)+len(f.Fields)),
	}
	for k, v := range req.Fields {
		out.Fields[k] = v
	}

	defaults := Defaults(f).Fields
	for _, fd := range f.Fields {
		v, present := req.Fields[fd.Key]
		switch fd.Kind {
		case FieldList:
			list := toList(v)
			if !present || v == nil {
				list = defaults[fd.Key].([]string)
			}
			out.Fields[fd.Key] = list
		default:
			s := strings.TrimSpace(toString(v))
			if s == "" {
				s = defaults[fd.Key].(string)
			}
			out.Fields[fd.Key] = s
		}
	}
	return out
}

// Validate checks req against f and fails on the first problem, in form order.
// req is expected to be normalized.
func Validate(f Feature, req models.AnalysisRequest) error {
	if strings.TrimSpace(req.CompanyName) == "" {
		return &ValidationError{Field: "company_name", Message: "Company name is required"}
	}
	if f.IndustryRequired && strings.TrimSpace(req.Industry) == "" {
		return &ValidationError{Field: "industry", Message: "Industry is required"}
	}

	for _, fd := range f.Fields {
		v := req.Fields[fd.Key]
		switch fd.Kind {
		case FieldList:
			n := len(toList(v))
			need := fd.MinItems
			if fd.Required && need < 1 {
				need = 1
			}
			if n < need {
				return &ValidationError{Field: fd.Key, Message: requiredMessage(fd)}
			}
		case FieldEnum:
			s := toString(v)
			if s == "" {
				if fd.Required {
					return &ValidationError{Field: fd.Key, Message: requiredMessage(fd)}
				}
				continue
			}
			if !slices.Contains(fd.Options, s) {
				return &ValidationError{
					Field:   fd.Key,
					Message: fmt.Sprintf("%s must be one of %s", fd.Label, strings.Join(fd.Options, ", ")),
				}
			}
		default:
			if fd.Required && strings.TrimSpace(toString(v)) == "" {
				return &ValidationError{Field: fd.Key, Message: requiredMessage(fd)}
			}
		}
	}
	return nil
}

// Prepare normalizes and validates req.
func Prepare(f Feature, req models.AnalysisRequest) (models.AnalysisRequest, error) {
	n := Normalize(f, req)
	if err := Validate(f, n); err != nil {
		return req, err
	}
	return n, nil
}

func requiredMessage(fd Field) string {
	if fd.Message != "" {
		return fd.Message
	}
	if fd.Kind == FieldList && fd.MinItems > 1 {
		return fmt.Sprintf("Select at least %d %s", fd.MinItems, strings.ToLower(fd.Label))
	}
	return fd.Label + " is required"
}

// toList accepts []string, []any of strings, or a comma-separated string.
// Blank entries are dropped.
func toList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			raw = append(raw, toString(e))
		}
	case string:
		raw = strings.Split(t, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
