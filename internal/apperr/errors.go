// Package apperr defines the error taxonomy shared across Furrow components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrParse marks a malformed source record. ParseError wraps it.
	ErrParse = errors.New("parse error")

	// ErrUnusableSource marks a source file that exists but cannot be
	// read as geometry (e.g. a shapefile missing its .shx/.dbf sidecars).
	// Distinct from ErrNotFound: the file is there, just not usable.
	ErrUnusableSource = errors.New("unusable source")

	// ErrNoOrigin is fatal for a whole legacy import root: the origin
	// descriptor (universe.txt) is missing.
	ErrNoOrigin = errors.New("origin descriptor not found")

	// ErrNoFarms is fatal for a whole import root: no farm directories.
	ErrNoFarms = errors.New("no farms found")

	// ErrValidation marks rejected user input (e.g. an empty rename
	// target). Nothing is mutated when it is returned.
	ErrValidation = errors.New("validation failed")
)

// ParseError describes a malformed source record. It unwraps to ErrParse
// so callers can match the whole class with errors.Is.
type ParseError struct {
	Source string // file or record the failure came from
	Reason string
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Parsef builds a ParseError with a formatted reason.
func Parsef(source, format string, args ...any) *ParseError {
	return &ParseError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
