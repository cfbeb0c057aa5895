package models

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable indicates the backing store could not be opened or initialised.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageWrite indicates a single insert or delete failed.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageRead indicates a listing query failed.
	ErrStorageRead = errors.New("storage read failed")
	// ErrDecode indicates a stored batch blob could not be decoded.
	ErrDecode = errors.New("batch decode failed")
	// ErrValidation indicates user input was rejected before reaching storage.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes which field of a session was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
