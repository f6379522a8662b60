// Package metadata associates vector ids with opaque row records.
package metadata

import (
	"context"

	"github.com/hyperjump/ragsearch/internal/models"
)

// Store maps integer ids to records. Get reports a missing record with ok=false rather than an error.
type Store interface {
	// Put stores rec under id, overwriting any previous record.
	Put(ctx context.Context, id int, rec models.Record) error
	// Get returns the record for id; ok is false when none was stored.
	Get(ctx context.Context, id int) (rec models.Record, ok bool, err error)
	// Len returns one past the highest id ever stored.
	Len() int
	Close() error
}
