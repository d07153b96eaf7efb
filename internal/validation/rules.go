// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/kvcrypt/internal/errors"
)

var (
	// identifierRegex matches key and provider identifiers. The ':' character
	// is excluded because it delimits envelope segments.
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Identifier validates key IDs and provider IDs used in stored envelopes.
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError(
		"validation_identifier_format",
		"must contain only letters, digits, '.', '_' or '-'",
	),
)

// StoragePath validates the path a record is stored under.
var StoragePath = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_storage_path_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_storage_path_prefix", "must start with '/'")
	}
	if strings.Contains(s, "//") {
		return validation.NewError("validation_storage_path_segments", "must not contain empty segments")
	}
	return nil
})
