package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/benvon/authgate/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// LoginRequest trims the email and validates the body of POST /auth/login.
// The returned error lists the offending fields without echoing their values.
func LoginRequest(req *models.LoginRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := Validate.Struct(req); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}
