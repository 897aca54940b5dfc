package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxFieldNameLength bounds attribute names declared on output layers
	MaxFieldNameLength = 64

	fieldNamePattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates v against its `validate` struct tags and returns the first
// failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// FieldName validates an attribute name for an output layer column.
// Letters from any script are allowed since village datasets often use CJK names.
func FieldName(name string) error {
	if name == "" {
		return errors.New("field name cannot be empty")
	}
	if len(name) > MaxFieldNameLength {
		return fmt.Errorf("field name '%s' exceeds maximum length of %d bytes", name, MaxFieldNameLength)
	}
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("field name '%s' is invalid (must start with a letter or underscore)", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
