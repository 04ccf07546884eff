package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeDocument trims a document number; case is kept as given.
func NormalizeDocument(number string) string {
	return strings.TrimSpace(number)
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

// BindingErrorMessage flattens binding errors into one human-readable line.
func BindingErrorMessage(err error) string {
	fields := ProcessValidationErrors(err)
	if len(fields) == 0 {
		return "invalid request body: " + err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, LowercaseFirst(k)+" is "+describeTag(fields[k]))
	}
	return strings.Join(parts, "; ")
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "email":
		return "not a valid email"
	case "oneof":
		return "not an allowed value"
	default:
		return "invalid (" + tag + ")"
	}
}
