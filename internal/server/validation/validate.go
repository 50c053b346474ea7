// Package validation holds the username and password rules applied at
// registration, plus the username normalization used on the login path.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hermesapp/auth-service/internal/common"
)

var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"superuser": {},
	"system":    {},
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// NormalizeUsername lowercases and trims a username and checks the shape
// constraints shared by login and registration: 3–50 characters, no
// embedded whitespace. Login callers must treat a returned error the same
// as an unknown user and must still run password verification.
func NormalizeUsername(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	if len(value) == 0 {
		return "", fmt.Errorf("%w: username cannot be empty", common.ErrValidation)
	}
	if len(value) < 3 {
		return "", fmt.Errorf("%w: username must be at least 3 characters", common.ErrValidation)
	}
	if len(value) > 50 {
		return "", fmt.Errorf("%w: username must be at most 50 characters", common.ErrValidation)
	}
	if strings.ContainsFunc(value, unicode.IsSpace) {
		return "", fmt.Errorf("%w: username cannot contain spaces", common.ErrValidation)
	}
	return value, nil
}

// ValidateNewUsername applies the stricter registration rules on top of
// normalization: restricted character set and reserved names.
func ValidateNewUsername(value string) (string, error) {
	value, err := NormalizeUsername(value)
	if err != nil {
		return "", err
	}
	for _, r := range value {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.' || r == '-' {
			continue
		}
		return "", fmt.Errorf("%w: username can only contain letters, numbers, and _ . - characters", common.ErrValidation)
	}
	if _, ok := reservedUsernames[value]; ok {
		return "", fmt.Errorf("%w: this username is reserved and cannot be used", common.ErrValidation)
	}
	return value, nil
}

// ValidatePassword enforces the registration complexity rules. It is never
// called on the login path.
func ValidatePassword(value string) error {
	if len(value) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", common.ErrValidation)
	}
	if len(value) > 128 {
		return fmt.Errorf("%w: password must be at most 128 characters", common.ErrValidation)
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	if !upper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", common.ErrValidation)
	}
	if !lower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", common.ErrValidation)
	}
	if !digit {
		return fmt.Errorf("%w: password must contain at least one digit", common.ErrValidation)
	}
	if !special {
		return fmt.Errorf("%w: password must contain at least one special character", common.ErrValidation)
	}
	return nil
}
