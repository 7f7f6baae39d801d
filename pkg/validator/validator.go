package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("date_ymd", validateDate)
	v.RegisterValidation("currency", validateCurrency)
	v.RegisterValidation("password", validatePassword)
	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "gt":
				errors[field] = field + " must be greater than " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "date_ymd":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "currency":
				errors[field] = field + " must be a 3-letter currency code"
			case "password":
				errors[field] = field + " must contain an uppercase letter, a lowercase letter, a digit and one of @$!%*?&"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func validateCurrency(fl validator.FieldLevel) bool {
	return currencyPattern.MatchString(fl.Field().String())
}

// passwordSpecials are the symbols accepted by the password policy.
const passwordSpecials = "@$!%*?&"

// IsStrongPassword requires at least 7 characters with upper, lower, digit and one of passwordSpecials.
func IsStrongPassword(password string) bool {
	if len(password) < 7 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
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
	return upper && lower && digit && special
}

func validatePassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}
