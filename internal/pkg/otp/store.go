package otp

import (
	"context"
	"time"
)

// Action tells a Store what to do with a record after an Update callback.
type Action int

const (
	// ActionKeep leaves the stored record untouched.
	ActionKeep Action = iota
	// ActionSave writes the mutated record back.
	ActionSave
	// ActionDelete removes the record.
	ActionDelete
)

// Store persists records keyed by (identity, purpose).
//
// Update must run its read-modify-write atomically with respect to every other
// mutating call on the same key. The callback may be invoked more than once
// when the implementation retries an optimistic transaction, so it must only
// derive its result from the record it is given.
type Store interface {
	// Save creates or replaces the record for rec.Key().
	Save(ctx context.Context, rec Record) error
	// Get returns the record for key without modifying it.
	Get(ctx context.Context, key Key) (Record, bool, error)
	// Delete removes the record for key. Missing keys are not an error.
	Delete(ctx context.Context, key Key) error
	// Update loads the record for key and applies fn. fn is not called and
	// found is false when the key does not exist.
	Update(ctx context.Context, key Key, fn func(rec *Record) Action) (found bool, err error)
	// List returns a snapshot of every stored record.
	List(ctx context.Context) ([]Record, error)
	// DeleteExpired removes every record expired at now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// selfExpiring is implemented by stores whose backend drops expired records
// on its own. Generate and Resend skip the inline purge for them and leave
// the rest to the sweeper.
type selfExpiring interface {
	selfExpiring()
}
