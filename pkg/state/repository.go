package state

import "context"

// Repository persists the last transfer record.
type Repository interface {
	// Load retrieves the last saved record.
	// Returns an empty record and nil error if none exists.
	Load(ctx context.Context) (Record, error)

	// Save persists the record atomically.
	Save(ctx context.Context, rec Record) error
}
