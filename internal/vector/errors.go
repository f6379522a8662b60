package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfiguration matches every *ConfigError via errors.Is.
	ErrConfiguration = errors.New("invalid vector store configuration")
	// ErrDimensionMismatch matches every *DimensionMismatchError via errors.Is.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyIndex is returned when searching a store that holds no vectors.
	ErrEmptyIndex = errors.New("vector store is empty")
	// ErrZeroVector is returned when normalizing a vector whose norm is zero.
	ErrZeroVector = errors.New("cannot normalize zero vector")
	// ErrInvalidTopK is returned when top_k is not positive.
	ErrInvalidTopK = errors.New("top_k must be positive")
	// ErrNonFinite matches every *NonFiniteError via errors.Is.
	ErrNonFinite = errors.New("vector has a non-finite component")
)

// ConfigError reports an invalid dimension or metric at construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid vector store %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// DimensionMismatchError reports a vector or query whose length differs from the store dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// CheckDimension returns a *DimensionMismatchError when len(v) != dim.
func CheckDimension(v []float32, dim int) error {
	if len(v) != dim {
		return &DimensionMismatchError{Expected: dim, Actual: len(v)}
	}
	return nil
}

// NonFiniteError reports the first NaN or infinite component of a vector.
type NonFiniteError struct {
	Index int
	Value float32
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("non-finite component %v at index %d", e.Value, e.Index)
}

func (e *NonFiniteError) Is(target error) bool { return target == ErrNonFinite }

// CheckFinite returns a *NonFiniteError for the first NaN, +Inf or -Inf component of v.
func CheckFinite(v []float32) error {
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &NonFiniteError{Index: i, Value: x}
		}
	}
	return nil
}
