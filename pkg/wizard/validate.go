package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// MinTranscriptLength is the shortest pasted transcript accepted, after trimming.
const MinTranscriptLength = 50

const (
	msgInvalidURL         = "Please enter a valid Google Drive URL."
	msgTranscriptTooShort = "Transcript must be at least 50 characters."
)

type videoInput struct {
	URL string `validate:"required,url,gdrive"`
}

type transcriptInput struct {
	Text string `validate:"required,min=50"`
}

// newValidator returns a validator with the gdrive rule registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("gdrive", func(fl validator.FieldLevel) bool {
		return IsDriveURL(fl.Field().String())
	})
	return v
}

// IsDriveURL reports whether raw points at Google Drive or Docs.
func IsDriveURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "drive.google.com" || host == "docs.google.com"
}

func validationError(v *validator.Validate, in any, message string) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%s (%s failed %q): %w", message, verrs[0].Field(), verrs[0].Tag(), mmerrors.ErrValidation)
	}
	return fmt.Errorf("%s: %w", message, mmerrors.ErrValidation)
}
