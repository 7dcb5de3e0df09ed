package ports

import "context"

// SnapshotStore persists the JSON export of a PRD collection between
// invocations. It never interprets the payload.
type SnapshotStore interface {
	// Load returns the stored snapshot. found is false when nothing has
	// been saved yet.
	Load(ctx context.Context) (data string, found bool, err error)

	// Save replaces the stored snapshot
	Save(ctx context.Context, data string) error

	// Location describes where snapshots are kept
	Location() string

	// HealthCheck verifies the store is usable
	HealthCheck(ctx context.Context) error
}
