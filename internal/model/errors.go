package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no job exists for an ID.
var ErrNotFound = errors.New("job not found")

// ErrUnsupportedMediaType fails a submission whose MIME type the pipeline
// cannot process at all.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ValidationError reports a bad input shape on the synchronous submission
// path. It is surfaced directly to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a blob or job store failure. Storage failures are the
// only recoverable-looking conditions that still fail a job outright.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
