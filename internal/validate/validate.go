// Package validate runs client- and server-side input checks with
// go-playground/validator and reports failures as *errs.ValidationError.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/covered/internal/errs"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("covered_email", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return len(PasswordProblems(fl.Field().String())) == 0
	})
	return v
}

// SignUpInput is what the sign-up flow collects.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,covered_email"`
	Password string `json:"password" validate:"required,strong_password"`
	Name     string `json:"name" validate:"required,max=100"`
}

// SignInInput is what the login flow collects.
type SignInInput struct {
	Email    string `json:"email" validate:"required,covered_email"`
	Password string `json:"password" validate:"required"`
}

// Struct validates s by its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Field() + " " + msgForTag(fe)
	}
	return &errs.ValidationError{Fields: fields}
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "covered_email":
		return "must be a valid email address"
	case "strong_password":
		return strings.Join(PasswordProblems(fe.Value().(string)), ", ")
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date formatted as %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool { return emailRe.MatchString(s) }

// PasswordProblems lists every unmet password rule; empty means acceptable.
func PasswordProblems(pw string) []string {
	var problems []string
	if len(pw) < MinPasswordLen {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper || !lower {
		problems = append(problems, "must contain upper and lower case letters")
	}
	if !digit {
		problems = append(problems, "must contain a digit")
	}
	if !special {
		problems = append(problems, "must contain a special character")
	}
	return problems
}

// NormalizeEmail trims and lower-cases an address the way the identity provider stores it.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
