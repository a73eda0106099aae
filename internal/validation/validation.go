// Package validation checks request structs against their `validate` tags
// and reports failures per field, using the JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError describes one rejected field.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every rejected field of one value.
type Error struct {
	Subject string       `json:"subject"`
	Fields  []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(msgs, "; "))
}

// Fields checks v's struct tags and returns the rejected fields.
func Fields(v any) ([]FieldError, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out, nil
}

// Struct validates v and returns an *Error naming subject when any field is rejected.
func Struct(subject string, v any) error {
	fields, err := Fields(v)
	if err != nil {
		return err
	}
	return Join(subject, fields)
}

// Join returns an *Error for fields, or nil when there are none.
func Join(subject string, fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Subject: subject, Fields: fields}
}

// Min builds the field error for a value below its lower bound.
func Min(field string, bound float64) FieldError {
	return FieldError{
		Code:    "ERR_GTE",
		Field:   field,
		Message: fmt.Sprintf("%s must be greater than or equal to %v", field, bound),
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
