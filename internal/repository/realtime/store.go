// Package realtime provides the shared key/value tree every terminal reads and
// writes: leaf documents addressed by slash-delimited paths, grouped into
// collections by their parent path.
//
// The only synchronization primitive is Transact, an optimistic
// compare-and-update over one or more leaf paths. The update function is
// re-applied against the latest values whenever another writer commits first.
// Watch streams full collection snapshots after every change.
package realtime

import (
	"context"
	"errors"
)

// DefaultMaxRetries bounds how many times Transact re-runs its update function.
const DefaultMaxRetries = 25

// ErrInvalidPath is returned for empty paths or paths with empty segments.
var ErrInvalidPath = errors.New("invalid store path")

// Snapshot maps the child names of a collection to their raw JSON documents.
type Snapshot map[string][]byte

// TxFunc receives the current value of every path in the transaction (nil when
// absent) and returns the values to write. A nil value deletes the path; paths
// left out of the returned map are not touched. Returning an error aborts the
// transaction without writing anything.
type TxFunc func(current map[string][]byte) (map[string][]byte, error)

// TxResult reports the outcome of Transact. Values holds the committed values
// of every path in the transaction.
type TxResult struct {
	Committed bool
	Values    map[string][]byte
}

// Store is the realtime data store contract used by the services.
type Store interface {
	// Get returns the document at path, or nil when it does not exist.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns every document directly under collection.
	List(ctx context.Context, collection string) (Snapshot, error)

	// Set overwrites the document at path.
	Set(ctx context.Context, path string, value []byte) error

	// Push appends a document under collection with a store-assigned,
	// time-ordered id and returns that id.
	Push(ctx context.Context, collection string, value []byte) (string, error)

	// Delete removes the document at path. When no document exists there the
	// path is treated as a collection and every child is removed in one step.
	// Deleting something that does not exist is not an error.
	Delete(ctx context.Context, path string) error

	// Transact runs fn as an optimistic transaction over paths. Committed is
	// false when the retry budget was exhausted; an error from fn is returned
	// as is.
	Transact(ctx context.Context, paths []string, fn TxFunc) (TxResult, error)

	// Watch emits the current snapshot of collection and a fresh one after
	// every change to it, until ctx is done.
	Watch(ctx context.Context, collection string) (<-chan Snapshot, error)
}
