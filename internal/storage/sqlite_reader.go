package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

// HistoryReader provides an iterator-based interface for reading the daily history
// one calendar date at a time, with optional date range filtering.
type HistoryReader interface {
	// Next advances the iterator and returns true if there is another day
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the record of the current day in the iteration.
	// Days without a stored record are returned as zero records.
	// If called after Next() returns false, the behavior is undefined.
	Current() *activity.DailyRecord

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

// ReaderOption configures a HistoryReader with date range criteria.
type ReaderOption func(*SqliteHistoryReader)

// WithStartDate sets the first date returned by the reader.
func WithStartDate(date string) ReaderOption {
	return func(hr *SqliteHistoryReader) {
		hr.startDate = &date
	}
}

// WithEndDate sets the last date returned by the reader.
func WithEndDate(date string) ReaderOption {
	return func(hr *SqliteHistoryReader) {
		hr.endDate = &date
	}
}

// WithDateRange sets both the first and the last date returned by the reader.
func WithDateRange(startDate, endDate string) ReaderOption {
	return func(hr *SqliteHistoryReader) {
		hr.startDate = &startDate
		hr.endDate = &endDate
	}
}

// WithLastDays limits the reader to the n days ending with today.
func WithLastDays(n int, today time.Time) ReaderOption {
	return func(hr *SqliteHistoryReader) {
		start := activity.DateOf(today.AddDate(0, 0, 1-n))
		end := activity.DateOf(today)
		hr.startDate = &start
		hr.endDate = &end
	}
}

func newSqliteHistoryReader(ctx context.Context, db *sql.DB, opts ...ReaderOption) (*SqliteHistoryReader, error) {
	hr := &SqliteHistoryReader{db: db}
	for _, opt := range opts {
		opt(hr)
	}
	if err := hr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return hr, nil
}

// SqliteHistoryReader implements HistoryReader for SQLite database backend.
type SqliteHistoryReader struct {
	db *sql.DB

	startDate *string // Optional start of date range filter
	endDate   *string // Optional end of date range filter

	cursor time.Time // Date returned by the next call to Next
	last   time.Time

	current     *activity.DailyRecord
	pending     *activity.DailyRecord // Row read ahead of the cursor
	pendingDate time.Time
	rows        *sql.Rows
	err         error
}

func (hr *SqliteHistoryReader) init(ctx context.Context) error {
	if hr.db == nil {
		return errors.New("database connection required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "initializing filters", fn: hr.initFilters},
		{msg: "initializing query", fn: hr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (hr *SqliteHistoryReader) initFilters(ctx context.Context) (err error) {
	if hr.startDate == nil || hr.endDate == nil {
		if err = hr.loadDateBounds(ctx); err != nil {
			return err
		}
		if hr.startDate == nil || hr.endDate == nil {
			return nil // empty history, nothing to iterate
		}
	}

	if hr.cursor, err = activity.ParseDate(*hr.startDate); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if hr.last, err = activity.ParseDate(*hr.endDate); err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if hr.cursor.After(hr.last) {
		return fmt.Errorf("start date %s is after end date %s", *hr.startDate, *hr.endDate)
	}

	return nil
}

// loadDateBounds fills the missing range ends with the first and the last stored dates
func (hr *SqliteHistoryReader) loadDateBounds(ctx context.Context) (err error) {
	stmt, err := hr.db.PrepareContext(ctx, selectDateBoundsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minDate, maxDate sql.NullString
	if err = stmt.QueryRowContext(ctx).Scan(&minDate, &maxDate); err != nil {
		return fmt.Errorf("scanning date bounds: %w", err)
	}
	if !minDate.Valid {
		return nil
	}

	if hr.startDate == nil {
		hr.startDate = &minDate.String
	}
	if hr.endDate == nil {
		hr.endDate = &maxDate.String
	}
	return nil
}

func (hr *SqliteHistoryReader) initQuery(ctx context.Context) (err error) {
	if hr.startDate == nil || hr.endDate == nil {
		return nil
	}

	stmt, err := hr.db.PrepareContext(ctx, selectRecordsRangeSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if hr.rows, err = stmt.QueryContext(ctx, *hr.startDate, *hr.endDate); err != nil {
		return err
	}
	return nil
}

func (hr *SqliteHistoryReader) Next(ctx context.Context) bool {
	if hr.err != nil || hr.rows == nil || hr.cursor.After(hr.last) {
		return false
	}

	select {
	case <-ctx.Done():
		hr.err = ctx.Err()
		return false
	default:
	}

	if hr.pending == nil && hr.rows.Next() {
		if hr.pending, hr.err = scanRecord(hr.rows); hr.err != nil {
			return false
		}
		if hr.pendingDate, hr.err = activity.ParseDate(hr.pending.Date); hr.err != nil {
			return false
		}
	}

	if hr.pending != nil && hr.pendingDate.Equal(hr.cursor) {
		hr.current = hr.pending
		hr.pending = nil
	} else {
		// Fill the gap up to the next stored day
		hr.current = &activity.DailyRecord{Date: activity.DateOf(hr.cursor)}
	}

	hr.cursor = hr.cursor.AddDate(0, 0, 1)
	return true
}

func (hr *SqliteHistoryReader) Current() *activity.DailyRecord {
	return hr.current
}

func (hr *SqliteHistoryReader) Error() error {
	if hr.err != nil {
		return hr.err
	}
	if hr.rows != nil {
		return hr.rows.Err()
	}
	return nil
}

func (hr *SqliteHistoryReader) Close() error {
	if hr.rows != nil {
		err := hr.rows.Close()
		hr.current = nil
		hr.pending = nil
		hr.rows = nil
		return err
	}
	return nil
}
