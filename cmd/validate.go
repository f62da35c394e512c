package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks a request body against its validate tags. Failures
// wrap ErrValidation and name the offending JSON fields.
func validateRequest(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, mmerrors.ErrValidation)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), mmerrors.ErrValidation)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return field + " is required (or give the alternative list)"
	case "datetime":
		return field + " must be a date like " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		return field + " needs at least " + fe.Param() + " entries"
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
