package activity

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date format used as the natural key of a DailyRecord.
const DateLayout = time.DateOnly

var (
	// ErrInvalidDate is returned when a date is not an ISO calendar date
	ErrInvalidDate = errors.New("invalid calendar date")

	// ErrNotFound is returned when no record exists for the requested date
	ErrNotFound = errors.New("record not found")
)

// DailyRecord represents the persisted steps, distance and calories snapshot for one calendar date.
type DailyRecord struct {
	Date     string  `json:"date" yaml:"date"`         // Calendar date, YYYY-MM-DD
	Steps    int     `json:"steps" yaml:"steps"`       // Number of detected steps
	Distance float64 `json:"distance" yaml:"distance"` // Distance travelled in meters
	Calories float64 `json:"calories" yaml:"calories"` // Burned energy in kcal
}

// Validate checks the record against the persisted layout constraints.
func (r DailyRecord) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	if r.Steps < 0 {
		return fmt.Errorf("steps must not be negative: %d", r.Steps)
	}
	if !isNonNegative(r.Distance) {
		return fmt.Errorf("distance must be a finite non-negative number: %v", r.Distance)
	}
	if !isNonNegative(r.Calories) {
		return fmt.Errorf("calories must be a finite non-negative number: %v", r.Calories)
	}
	return nil
}

// Profile holds the user settings consumed by the distance and calorie formulas.
// A zero Profile is valid and makes every formula yield zero.
type Profile struct {
	WeightKg float64 `yaml:"weightKg"`
	HeightCm float64 `yaml:"heightCm"`
	StepGoal int     `yaml:"stepGoal"`
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
