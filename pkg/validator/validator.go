package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate

	// slug is the id format of vendors and app short names.
	regxSlug = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func init() {
	v = validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return regxSlug.MatchString(fl.Field().String())
	})
}

func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	return v.Struct(i)
}

// Var validate a single value against tag.
func Var(field interface{}, tag string) error {
	return v.Var(field, tag)
}
