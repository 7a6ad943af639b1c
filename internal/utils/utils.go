// file: internal/utils/utils.go
package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// HashPassword hashes a plain text password using bcrypt.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a hashed password with a plain text password.
func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateSessionToken creates a unique session token using UUID.
func GenerateSessionToken() (string, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return token.String(), nil
}

// ValidatePasswordStrength checks if a password is strong enough.
func ValidatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasNumber bool

	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return errors.New("password must include at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must include at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must include at least one numeric digit")
	}
	return nil
}

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(email) > 254 {
		return errors.New("email address is too long")
	}
	parts := strings.Split(email, "@")
	if len(parts[0]) > 64 {
		return errors.New("email username part is too long")
	}
	return nil
}

// SanitizeString trims whitespace and escapes HTML to prevent XSS.
func SanitizeString(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
