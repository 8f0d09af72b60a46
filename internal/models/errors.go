package models

import "errors"

// Store-level lookup errors shared by every repository implementation.
var (
	ErrEntryNotFound = errors.New("journal entry not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)
