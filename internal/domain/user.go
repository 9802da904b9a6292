package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest user name accepted, in runes.
const MaxNameLength = 255

// UserRecord is a user as persisted by the record store.
// ID is assigned by the store and never changes. FilePath is nil until the
// user uploads a file.
type UserRecord struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	FilePath *string `json:"file_path"`
}

// HasFile reports whether a file path has been recorded for the user.
func (u *UserRecord) HasFile() bool {
	return u.FilePath != nil && *u.FilePath != ""
}

// ValidateName checks a user name before it is written to the store.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "cannot be empty", ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewValidationError("name", "is too long", ErrNameTooLong)
	}
	return nil
}

// ValidateID checks a store-assigned identifier taken from user input.
func ValidateID(id int64) error {
	if id <= 0 {
		return NewValidationError("id", "must be positive", ErrInvalidID)
	}
	return nil
}
