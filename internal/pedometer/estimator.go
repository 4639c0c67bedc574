package pedometer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/motion"
)

// DefaultThreshold is the minimum magnitude increase, in m/s², between two
// consecutive samples that registers a step
const DefaultThreshold = 10.0

// ErrNoDay is returned when a sample arrives before StartDay fixed the session date
var ErrNoDay = errors.New("session date is not set")

// RecordStore is the part of the daily record store the estimator writes through to
type RecordStore interface {
	Upsert(ctx context.Context, record activity.DailyRecord) error
	LoadDay(ctx context.Context, date string) (*activity.DailyRecord, error)
}

// Session holds the running totals of the current date
type Session struct {
	Date     string
	Steps    int
	Distance float64 // meters
	Calories float64 // kcal
}

// Record returns the daily record persisted for the session
func (s Session) Record() activity.DailyRecord {
	return activity.DailyRecord{
		Date:     s.Date,
		Steps:    s.Steps,
		Distance: s.Distance,
		Calories: s.Calories,
	}
}

// WithThreshold sets the step detection threshold
func WithThreshold(threshold float64) func(*Estimator) {
	return func(e *Estimator) {
		e.threshold = threshold
	}
}

// WithFormula sets the distance and calories formula
func WithFormula(f Formula) func(*Estimator) {
	return func(e *Estimator) {
		e.formula = f
	}
}

// WithLogger sets the logger for the estimator
func WithLogger(logger *slog.Logger) func(*Estimator) {
	return func(e *Estimator) {
		e.logger = logger
	}
}

// Estimator converts a stream of motion samples into a step count for the
// current date, derives distance and calories, and writes every change
// through to the record store.
type Estimator struct {
	store     RecordStore
	profile   activity.Profile
	formula   Formula
	threshold float64
	logger    *slog.Logger

	mu            sync.Mutex
	session       Session
	lastMagnitude float64
}

// NewEstimator creates a new Estimator with the flat rate formula and the default threshold
func NewEstimator(store RecordStore, profile activity.Profile, options ...func(*Estimator)) *Estimator {
	e := Estimator{
		store:     store,
		profile:   profile,
		formula:   FlatRate{},
		threshold: DefaultThreshold,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&e)
	}

	return &e
}

// StartDay fixes the session date and rehydrates the counters from the record
// persisted for that date. Counters are reset when no record exists.
// The previous magnitude is kept so a day change does not register a spurious step.
func (e *Estimator) StartDay(ctx context.Context, date string) error {
	if _, err := activity.ParseDate(date); err != nil {
		return err
	}

	record, err := e.store.LoadDay(ctx, date)
	if err != nil && !errors.Is(err, activity.ErrNotFound) {
		return fmt.Errorf("loading record for %s: %w", date, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.session.Date = date

	if record != nil {
		e.session.Steps = record.Steps
		e.session.Distance = record.Distance
		e.session.Calories = record.Calories
	}

	e.logger.Debug("session started",
		slog.String("date", date),
		slog.Int("steps", e.session.Steps))

	return nil
}

// Reset zeroes the session counters, keeping the session date
func (e *Estimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
}

func (e *Estimator) resetLocked() {
	e.session.Steps = 0
	e.session.Distance = 0
	e.session.Calories = 0
}

// OnSample processes one accelerometer sample. It returns true when the sample
// registered a step. Samples with a non-finite magnitude are discarded.
// A failed write-through is returned, the in-memory counters keep the step.
func (e *Estimator) OnSample(ctx context.Context, sample motion.Sample) (bool, error) {
	magnitude := sample.Magnitude()
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	delta := magnitude - e.lastMagnitude
	e.lastMagnitude = magnitude

	if delta <= e.threshold {
		return false, nil
	}

	if e.session.Date == "" {
		return false, ErrNoDay
	}

	e.session.Steps++
	e.session.Distance = e.formula.Distance(e.session.Steps, e.profile)
	e.session.Calories = e.formula.Calories(e.session.Steps, e.session.Distance, e.profile)

	// the lock is held across the write so records of one date are written in step order
	record := e.session.Record()
	if err := e.store.Upsert(ctx, record); err != nil {
		return true, fmt.Errorf("writing record for %s: %w", record.Date, err)
	}

	return true, nil
}

// Snapshot returns a copy of the running session
func (e *Estimator) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session
}

// Progress returns the fraction of the daily step goal reached so far.
// It is zero when no goal is set.
func (e *Estimator) Progress() float64 {
	if e.profile.StepGoal <= 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return float64(e.session.Steps) / float64(e.profile.StepGoal)
}

// Profile returns the profile the session was started with
func (e *Estimator) Profile() activity.Profile {
	return e.profile
}

// Formula returns the distance and calories formula in use
func (e *Estimator) Formula() Formula {
	return e.formula
}
