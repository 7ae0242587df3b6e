// Package validation provides custom validation rules for card API requests.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

var (
	cardNumberRegex     = regexp.MustCompile(`^[0-9]{12,19}$`)
	cvvRegex            = regexp.MustCompile(`^[0-9]{3,4}$`)
	expirationDateRegex = regexp.MustCompile(`^([0-9]{4}-(0[1-9]|1[0-2])|(0[1-9]|1[0-2])/[0-9]{2})$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.WithReason(apperrors.ErrInvalidInput, err.Error())
}

// CardNumber validates a primary account number of 12 to 19 digits.
var CardNumber = validation.NewStringRuleWithError(
	cardNumberRegex.MatchString,
	validation.NewError("validation_card_number", "must be 12 to 19 digits"),
)

// CVV validates a 3 or 4 digit card verification value.
var CVV = validation.NewStringRuleWithError(
	cvvRegex.MatchString,
	validation.NewError("validation_cvv", "must be 3 or 4 digits"),
)

// ExpirationDate accepts "YYYY-MM" or "MM/YY".
var ExpirationDate = validation.NewStringRuleWithError(
	expirationDateRegex.MatchString,
	validation.NewError("validation_expiration_date", "must be formatted as YYYY-MM or MM/YY"),
)

// OneOf validates that a string is one of the allowed values.
func OneOf(allowed ...string) validation.Rule {
	return validation.NewStringRuleWithError(
		func(s string) bool {
			for _, a := range allowed {
				if s == a {
					return true
				}
			}
			return false
		},
		validation.NewError("validation_one_of", "must be one of "+strings.Join(allowed, ", ")),
	)
}

// PositiveAmount validates a decimal.Decimal greater than zero.
var PositiveAmount = validation.By(func(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_amount_type", "must be a decimal amount")
	}
	if !d.IsPositive() {
		return validation.NewError("validation_amount_positive", "must be greater than zero")
	}
	return nil
})

// NonNegativeAmount validates a decimal.Decimal greater than or equal to zero.
var NonNegativeAmount = validation.By(func(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_amount_type", "must be a decimal amount")
	}
	if d.IsNegative() {
		return validation.NewError("validation_amount_negative", "must not be negative")
	}
	return nil
})

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
