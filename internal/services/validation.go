package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"yamdb/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !strings.EqualFold(fl.Field().String(), models.ReservedUsername)
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

type signupInput struct {
	Username string `json:"username" validate:"required,max=150,username,notreserved"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

type tokenInput struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required,max=64"`
}

type profileInput struct {
	Username  string      `json:"username" validate:"required,max=150,username,notreserved"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Role      models.Role `json:"role" validate:"required,oneof=user moderator admin"`
}

// check runs struct validation and converts failures into a ValidationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Only letters, digits and @/./+/-/_ are allowed."
	case "notreserved":
		return fmt.Sprintf("Username %q is reserved.", models.ReservedUsername)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	}
	return "Invalid value."
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
