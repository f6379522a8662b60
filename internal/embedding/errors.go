package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmbeddingProvider matches every *ProviderError via errors.Is.
var ErrEmbeddingProvider = errors.New("embedding provider error")

// ProviderError wraps a failed call to an embedding provider.
// Timeout distinguishes deadline and network timeouts from other failures.
type ProviderError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("embedding provider: %s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("embedding provider: %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrEmbeddingProvider }

// IsTimeout reports whether err is a *ProviderError caused by a timeout.
func IsTimeout(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Timeout
}

// wrap converts err into a *ProviderError unless it already is one.
func wrap(ctx context.Context, op string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if !pe.Timeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			pe.Timeout = true
		}
		return err
	}
	return &ProviderError{Op: op, Timeout: isTimeout(ctx, err), Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
