package storage

import (
	_ "embed"
)

const (
	upsertRecordSQL = `
INSERT INTO fitness_records (date,
                             steps,
                             distance,
                             calories)
VALUES (?, ?, ?, ?)
ON CONFLICT (date) DO UPDATE SET steps    = excluded.steps,
                                 distance = excluded.distance,
                                 calories = excluded.calories`

	selectRecordSQL = `
SELECT 
    date, 
    steps, 
    distance, 
    calories 
FROM fitness_records 
WHERE 
    date = ?`

	selectRecordsSQL = `
SELECT 
    date, 
    steps, 
    distance, 
    calories 
FROM fitness_records 
ORDER BY date DESC`

	selectRecordsRangeSQL = `
SELECT 
    date, 
    steps, 
    distance, 
    calories 
FROM fitness_records 
WHERE 
    date BETWEEN ? AND ?
ORDER BY date`

	selectDateBoundsSQL = `
SELECT 
    MIN(date), 
    MAX(date) 
FROM fitness_records`

	deleteRecordsSQL = `DELETE FROM fitness_records`
)

//go:embed schema.sql
var initSchemaSQL string
