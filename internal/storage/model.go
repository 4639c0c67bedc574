package storage

import (
	"github.com/roman-kulish/step-tracker/internal/activity"
)

// recordData is a row of the fitness_records table
type recordData struct {
	Date     string
	Steps    int64
	Distance float64
	Calories float64
}

func toRecordData(r activity.DailyRecord) recordData {
	return recordData{
		Date:     r.Date,
		Steps:    int64(r.Steps),
		Distance: r.Distance,
		Calories: r.Calories,
	}
}

func (d recordData) toRecord() *activity.DailyRecord {
	return &activity.DailyRecord{
		Date:     d.Date,
		Steps:    int(d.Steps),
		Distance: d.Distance,
		Calories: d.Calories,
	}
}
