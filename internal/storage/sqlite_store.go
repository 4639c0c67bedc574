package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

const busyTimeout = 5 * time.Second

// ErrClosed is returned when the store is used after Close
var ErrClosed = errors.New("store is closed")

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened, and the schema is initialized, on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

// getWriteDB returns the single write connection. Limiting the pool to one
// connection serializes writers, so concurrent upserts of one date cannot interleave.
func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.writeDBOnce.Do(func() {
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", s.dbPath, busyTimeout.Milliseconds())
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	// the schema must exist before a read-only connection can query it
	if _, err := s.getWriteDB(); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d", s.dbPath, busyTimeout.Milliseconds())
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) Upsert(ctx context.Context, record activity.DailyRecord) (err error) {
	if err = record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, upsertRecordSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	data := toRecordData(record)
	if _, err = stmt.ExecContext(ctx, data.Date, data.Steps, data.Distance, data.Calories); err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}

	return nil
}

func (s *SqliteStore) LoadDay(ctx context.Context, date string) (record *activity.DailyRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRecordSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if record, err = scanRecord(stmt.QueryRowContext(ctx, date)); err != nil {
		if !errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("loading record for %s: %w", date, err)
		}
		return nil, err
	}

	return record, nil
}

func (s *SqliteStore) ListAll(ctx context.Context) (records []activity.DailyRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRecordsSQL)
	if err != nil {
		err = fmt.Errorf("querying records: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	records = make([]activity.DailyRecord, 0)
	for rows.Next() {
		var record *activity.DailyRecord
		if record, err = scanRecord(rows); err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

func (s *SqliteStore) ClearAll(ctx context.Context) (removed int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	result, err := db.ExecContext(ctx, deleteRecordsSQL)
	if err != nil {
		err = fmt.Errorf("deleting records: %w", err)
		return
	}

	if removed, err = result.RowsAffected(); err != nil {
		err = fmt.Errorf("counting deleted records: %w", err)
	}
	return
}

// ReadHistory creates a new HistoryReader that iterates day by day, in ascending
// date order, over the stored records. Days without a record within the range
// are returned as zero records, so the sequence has no gaps.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - opts: Optional range parameters (WithStartDate, WithEndDate, WithDateRange, WithLastDays)
//
// Without range options the reader spans from the first to the last stored date.
// The returned reader must be closed after use to release database resources.
func (s *SqliteStore) ReadHistory(ctx context.Context, opts ...ReaderOption) (*SqliteHistoryReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteHistoryReader(ctx, db, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
