package core

import "context"

// Store defines the contract for holding pending notifications.
// Adhering to this interface keeps the core independent of the backing
// mechanism (in-memory map, on-disk spool, etc).
//
// Dispatch is single-threaded and non-reentrant, so implementations are
// never asked to tolerate concurrent mutation from the dispatcher; they
// may still be read concurrently by the viewing collaborator.
type Store interface {
	// Save persists a notification. It overwrites an existing entry
	// with the same id without changing its position in the listing.
	Save(ctx context.Context, n Notification) error

	// Get retrieves a notification by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id int) (Notification, error)

	// List returns all pending notifications in insertion order.
	List(ctx context.Context) ([]Notification, error)

	// Delete removes a notification by id. Deleting an absent id is a
	// no-op, not an error.
	Delete(ctx context.Context, id int) error

	// Initialize ensures the underlying storage is ready (e.g. create
	// the spool directory).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that can report changes,
// so the notification viewer can react without polling.
type Watchable interface {
	// Watch emits an Event for every create and delete until ctx ends.
	Watch(ctx context.Context) (<-chan Event, error)
}
