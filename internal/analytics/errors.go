package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every failure of the underlying key-value medium.
	ErrStorage = errors.New("analytics storage failure")
	// ErrInvalidSnapshot is returned when an import document is malformed.
	ErrInvalidSnapshot = errors.New("invalid analytics snapshot")
	// ErrUnknownPeriod is returned for an unsupported aggregate period.
	ErrUnknownPeriod = errors.New("unknown aggregate period")
)

// StorageError describes a failed read, decode, write or remove. Results
// are kept in memory, so the operation can be retried.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes both ErrStorage and the cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func invalidSnapshot(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
