package storage

import (
	"context"
	"errors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/step-tracker/internal/activity"
)

var (
	// ErrNotFound is returned when no record exists for the requested date
	ErrNotFound = activity.ErrNotFound

	// ErrInvalidRecord is returned when a record violates the persisted layout constraints
	ErrInvalidRecord = errors.New("invalid record")
)

// Store provides an interface for managing the daily activity history.
// It holds at most one record per calendar date. All operations that write
// to the database are atomic: a failed call leaves no partial state behind.
type Store interface {
	// Upsert writes the record for record.Date, fully replacing an existing one.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - record: Daily totals; the date must be YYYY-MM-DD and all values non-negative
	//
	// Returns:
	//   - error: ErrInvalidRecord for a malformed record, or if storage fails or context is cancelled
	Upsert(ctx context.Context, record activity.DailyRecord) error

	// LoadDay retrieves the record stored for a specific date.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - date: Calendar date, YYYY-MM-DD
	//
	// Returns:
	//   - record: Pointer to the stored record
	//   - error: ErrNotFound if no record exists, or if retrieval fails or context is cancelled
	LoadDay(ctx context.Context, date string) (record *activity.DailyRecord, err error)

	// ListAll returns every stored record, most recent date first.
	// The returned slice is a snapshot and does not reflect subsequent writes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - records: Stored records ordered by date descending, empty if there are none
	//   - error: If retrieval fails or context is cancelled
	ListAll(ctx context.Context) (records []activity.DailyRecord, err error)

	// ClearAll removes every record unconditionally. It is irreversible.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - removed: Number of deleted records
	//   - error: If deletion fails or context is cancelled
	ClearAll(ctx context.Context) (removed int64, err error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	//
	// Returns:
	//   - error: If closing fails or some resources cannot be released
	Close() error
}
