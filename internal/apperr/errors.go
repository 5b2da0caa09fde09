// Package apperr defines errors shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoDefinitions = errors.New("no definitions available")
	ErrInvalidWord   = errors.New("invalid word")
)

// NoDefinitionsError is returned when the dictionary provider reports that it
// has no entries for a word. It matches ErrNoDefinitions with errors.Is.
type NoDefinitionsError struct {
	Word       string
	Title      string
	Message    string
	Resolution string
}

func (e *NoDefinitionsError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("no definitions found for word %q", e.Word)
	}
	return fmt.Sprintf("%s: %q", e.Title, e.Word)
}

func (e *NoDefinitionsError) Unwrap() error { return ErrNoDefinitions }
