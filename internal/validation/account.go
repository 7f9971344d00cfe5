// Package validation checks user-supplied account fields before they are stored.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername accepts 3 to 30 letters, digits, underscores or hyphens,
// not starting or ending with a separator. Usernames must be mentionable
// as "@name ", so whitespace is never allowed.
func ValidateUsername(username string) error {
	switch {
	case len(username) < 3:
		return errors.New("username must be at least 3 characters long")
	case len(username) > 30:
		return errors.New("username must not exceed 30 characters")
	case !usernamePattern.MatchString(username):
		return errors.New("username can only contain letters, numbers, underscores, and hyphens")
	case strings.ContainsAny(username[:1], "_-") || strings.ContainsAny(username[len(username)-1:], "_-"):
		return errors.New("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return errors.New("email must not exceed 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword requires 12 to 128 characters mixing upper case, lower case,
// digits and punctuation.
func ValidatePassword(password string) error {
	n := len([]rune(password))
	if n < 12 {
		return errors.New("password must be at least 12 characters long")
	}
	if n > 128 {
		return errors.New("password must not exceed 128 characters")
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
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return errors.New("password must contain at least one uppercase letter")
	case !lower:
		return errors.New("password must contain at least one lowercase letter")
	case !digit:
		return errors.New("password must contain at least one digit")
	case !special:
		return errors.New("password must contain at least one special character")
	}
	return nil
}
