// Package validation checks form input on the client before any
// network call. Validation failures are surfaced inline and never sent
// to the server.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Errors is the set of failed fields for one struct.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.String()
	}
	return strings.Join(msgs, "; ")
}

// Struct validates a tagged struct. It returns nil when valid and an
// Errors value (usable as error) otherwise.
func Struct(obj any) Errors {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var out Errors
	for _, fe := range err.(validator.ValidationErrors) {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "oneof":
		return "Value must be one of: " + err.Param()
	default:
		return "Invalid value"
	}
}
