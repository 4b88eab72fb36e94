// Package validation holds input rules shared by the API and the tooling.
package validation

import (
	"fmt"
	"unicode"
)

const (
	minPasswordLen = 12
	maxPasswordLen = 128
)

// ValidatePassword enforces length and character-class rules.
func ValidatePassword(password string) error {
	n := len([]rune(password))
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("password must be %d-%d characters", minPasswordLen, maxPasswordLen)
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
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("password must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}
