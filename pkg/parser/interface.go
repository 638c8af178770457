package parser

import (
	"context"
)

// EventSource provides an iterator over decoded event records.
// Implementations must be safe for sequential access (not concurrent).
type EventSource interface {
	// Next returns the next record.
	// Returns io.EOF when no more records are available.
	Next(ctx context.Context) (*Record, error)

	// Close releases any resources held by the source.
	Close() error
}
