package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

type scanner interface {
	Scan(dest ...any) error
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func scanRecord(s scanner) (*activity.DailyRecord, error) {
	var r recordData
	if err := s.Scan(&r.Date, &r.Steps, &r.Distance, &r.Calories); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	return r.toRecord(), nil
}
