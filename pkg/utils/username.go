package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateUsername validates username format.
// Rules: 3-32 characters; letters, numbers, underscore, dot and dash; must
// start with a letter or number. Usernames are case-sensitive.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if username == "" {
		return &ValidationError{Field: "userName", Message: "Username is required"}
	}
	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "userName", Message: "Username must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "userName", Message: "Username must be at most 32 characters"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "userName", Message: "Username can only contain letters, numbers, '_', '.' and '-'"}
	}
	if first := rune(username[0]); !unicode.IsLetter(first) && !unicode.IsNumber(first) {
		return &ValidationError{Field: "userName", Message: "Username must start with a letter or number"}
	}
	return nil
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "Email is not a valid address"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
