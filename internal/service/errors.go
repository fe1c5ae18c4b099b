package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when name resolution fails for rename or delete.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateDocument is returned when an uploaded display name already
	// exists in the catalog. The whole upload batch is rejected.
	ErrDuplicateDocument = errors.New("document already exists")
	// ErrEmptyCorpus is returned by lookup when no collection has been
	// created yet. It is an expected state, not a failure.
	ErrEmptyCorpus = errors.New("corpus is empty")
	// ErrStoreTransient marks connection or transport failures during
	// batched store mutations. These are retried internally and surfaced
	// only once the retry budget is exhausted.
	ErrStoreTransient = errors.New("transient store error")
	// ErrStoreFatal marks any other backend failure. Never retried.
	ErrStoreFatal = errors.New("store error")
)

// ValidationError represents an input validation failure, such as a PDF
// batch from which no text could be extracted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
