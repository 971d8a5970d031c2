// Package learning provides the append-only interaction log used for
// offline analysis of completed tasks.
package learning

import "io"

// Store defines the interface for interaction log persistence.
// The orchestrator appends one record per completed task when learning
// is enabled; it never reads the log back on the hot path.
type Store interface {
	io.Closer
	// Append writes one interaction record.
	Append(r Record) error
	// List returns the most recent records, newest first. limit <= 0
	// returns everything.
	List(limit int) ([]Record, error)
	// Count returns the number of stored records.
	Count() (int, error)
}

// Compile-time verification that both stores implement the interface.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*NopStore)(nil)
)

// NopStore discards all records. Used when learning is disabled.
type NopStore struct{}

// Append discards the record.
func (NopStore) Append(Record) error { return nil }

// List returns nothing.
func (NopStore) List(int) ([]Record, error) { return nil, nil }

// Count returns zero.
func (NopStore) Count() (int, error) { return 0, nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }
