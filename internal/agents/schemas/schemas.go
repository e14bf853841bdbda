package schemas

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"stockresearch/pkg/errors"
)

func boolPtr(v bool) *bool {
	return &v
}

func float64Ptr(v float64) *float64 {
	return &v
}

var (
	validate = validator.New()

	fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")
)

// Decode converts a structured agent output into T and validates it.
//
// Agents with an output schema publish their result to session state as a JSON
// string; agent tools hand back an already parsed map. Both forms are accepted.
func Decode[T any](value any) (*T, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, errors.Wrap(errors.ErrOutputMissing, "structured output is empty")
	case string:
		raw = []byte(cleanMarkdownFences(v))
	case []byte:
		raw = []byte(cleanMarkdownFences(string(v)))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "encode structured output")
		}
		raw = b
	}

	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrOutputMissing, "structured output is empty")
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "decode structured output: %v", err)
	}
	if err := Validate(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks struct tags and reports the first failing field
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewValidationError(fe.Namespace(), "failed "+fe.Tag()+" check", fe.Value())
	}
	return errors.Wrap(errors.ErrInvalidInput, err.Error())
}

// cleanMarkdownFences strips a ```json fence some models wrap around JSON output
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	return strings.TrimSpace(s)
}
