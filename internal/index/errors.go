package index

import (
	"errors"
	"fmt"
)

var (
	// ErrWriterClosed is returned by Append after the Writer has been closed.
	ErrWriterClosed = errors.New("index writer is closed")
	// ErrNotNormalized is returned when an inner-product index is given a non-unit vector.
	ErrNotNormalized = errors.New("inner product index requires unit-length vectors")
)

// PartialIngestionError reports a vector that was inserted without its metadata record.
// The store has no delete, so the caller decides whether to compensate.
type PartialIngestionError struct {
	ID  int
	Err error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("partial ingestion: vector %d stored without metadata: %v", e.ID, e.Err)
}

func (e *PartialIngestionError) Unwrap() error { return e.Err }
