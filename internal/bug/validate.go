package bug

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/zulandar/bugboard/internal/models"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "bug: validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the named field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("bug: register notblank: %v", err))
	}
	// Report fields under their JSON names so callers can map errors back to form inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks a draft against the report submission rules. It returns a
// *ValidationError listing every failing field, or nil.
func Validate(d Draft) error {
	err := validate.Struct(d.withDefaults())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("bug: validate: %w", err)
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Reason: reason(fe)}
	}
	return &ValidationError{Fields: fields}
}

// validateStatus rejects statuses outside the workflow.
func validateStatus(s models.Status) error {
	if s.Valid() {
		return nil
	}
	return &ValidationError{Fields: []FieldError{
		{Field: "status", Reason: "must be one of: open in-progress testing resolved closed"},
	}}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must contain at least one entry"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
