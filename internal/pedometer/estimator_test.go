package pedometer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/motion"
)

type memoryStore struct {
	records  map[string]activity.DailyRecord
	writes   int
	failNext error
	loadErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]activity.DailyRecord)}
}

func (m *memoryStore) Upsert(_ context.Context, record activity.DailyRecord) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.records[record.Date] = record
	m.writes++
	return nil
}

func (m *memoryStore) LoadDay(_ context.Context, date string) (*activity.DailyRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	r, ok := m.records[date]
	if !ok {
		return nil, activity.ErrNotFound
	}
	return &r, nil
}

func newStartedEstimator(t *testing.T, store *memoryStore, options ...func(*Estimator)) *Estimator {
	t.Helper()

	e := NewEstimator(store, activity.Profile{}, options...)
	if err := e.StartDay(context.Background(), "2024-01-01"); err != nil {
		t.Fatalf("Failed to start day: %v", err)
	}
	return e
}

func feed(t *testing.T, e *Estimator, samples ...motion.Sample) {
	t.Helper()

	for i, s := range samples {
		if _, err := e.OnSample(context.Background(), s); err != nil {
			t.Fatalf("Sample %d: unexpected error: %v", i, err)
		}
	}
}

func TestEstimator_StepScenario(t *testing.T) {
	store := newMemoryStore()
	e := newStartedEstimator(t, store)

	feed(t, e, motion.Sample{X: 0, Y: 0, Z: 0}, motion.Sample{X: 20, Y: 0, Z: 0})
	if steps := e.Snapshot().Steps; steps != 1 {
		t.Fatalf("Expected 1 step after a jump of 20, got %d", steps)
	}

	feed(t, e, motion.Sample{X: 20, Y: 0, Z: 0})
	if steps := e.Snapshot().Steps; steps != 1 {
		t.Errorf("Expected steps to stay at 1 after a zero delta, got %d", steps)
	}

	want := activity.DailyRecord{Date: "2024-01-01", Steps: 1, Distance: 0.7, Calories: 0.04}
	if got := store.records["2024-01-01"]; got != want {
		t.Errorf("Expected persisted record %+v, got %+v", want, got)
	}
	if store.writes != 1 {
		t.Errorf("Expected exactly one write-through, got %d", store.writes)
	}
}

func TestEstimator_SubThresholdDeltasNeverStep(t *testing.T) {
	e := newStartedEstimator(t, newMemoryStore())

	// rising by exactly the threshold, then falling sharply
	for _, x := range []float64{0, 10, 20, 30, 0, 5, 15, 25, 35, 45} {
		feed(t, e, motion.Sample{X: x})
	}

	if steps := e.Snapshot().Steps; steps != 0 {
		t.Errorf("Expected no steps, got %d", steps)
	}
}

func TestEstimator_JumpSizeCountsOnce(t *testing.T) {
	testCases := []struct {
		name string
		jump float64
	}{
		{"just above threshold", 10.000001},
		{"large jump", 1_000},
		{"huge jump", 1e12},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newStartedEstimator(t, newMemoryStore())
			feed(t, e, motion.Sample{}, motion.Sample{Z: tc.jump})

			if steps := e.Snapshot().Steps; steps != 1 {
				t.Errorf("Expected exactly 1 step, got %d", steps)
			}
		})
	}
}

func TestEstimator_DiscardsNonFiniteSamples(t *testing.T) {
	store := newMemoryStore()
	e := newStartedEstimator(t, store)

	feed(t, e,
		motion.Sample{X: 5},
		motion.Sample{X: math.NaN()},
		motion.Sample{Y: math.Inf(1)},
		motion.Sample{Z: math.Inf(-1)},
	)

	s := e.Snapshot()
	if s.Steps != 0 || math.IsNaN(s.Distance) || math.IsNaN(s.Calories) {
		t.Errorf("Expected untouched counters, got %+v", s)
	}

	// the last finite magnitude is still the reference
	feed(t, e, motion.Sample{X: 15})
	if steps := e.Snapshot().Steps; steps != 0 {
		t.Errorf("Expected delta from the last finite magnitude to be 10, got a step")
	}
	if store.writes != 0 {
		t.Errorf("Expected no writes, got %d", store.writes)
	}
}

func TestEstimator_WriteFailureKeepsCounters(t *testing.T) {
	store := newMemoryStore()
	e := newStartedEstimator(t, store)

	diskErr := errors.New("disk unavailable")
	store.failNext = diskErr

	feed(t, e, motion.Sample{})
	stepped, err := e.OnSample(context.Background(), motion.Sample{X: 20})
	if !stepped {
		t.Error("Expected the sample to register a step")
	}
	if !errors.Is(err, diskErr) {
		t.Fatalf("Expected the storage error, got %v", err)
	}
	if steps := e.Snapshot().Steps; steps != 1 {
		t.Errorf("Expected counters to keep the step, got %d", steps)
	}

	feed(t, e, motion.Sample{}, motion.Sample{X: 20})
	if got := store.records["2024-01-01"].Steps; got != 2 {
		t.Errorf("Expected the next write-through to persist 2 steps, got %d", got)
	}
}

func TestEstimator_StartDay(t *testing.T) {
	store := newMemoryStore()
	store.records["2024-01-01"] = activity.DailyRecord{Date: "2024-01-01", Steps: 100, Distance: 70, Calories: 4}

	e := NewEstimator(store, activity.Profile{})
	ctx := context.Background()

	if _, err := e.OnSample(ctx, motion.Sample{X: 20}); !errors.Is(err, ErrNoDay) {
		t.Errorf("Expected ErrNoDay before StartDay, got %v", err)
	}

	if err := e.StartDay(ctx, "2024-01-01"); err != nil {
		t.Fatalf("Failed to start day: %v", err)
	}
	if s := e.Snapshot(); s.Steps != 100 || s.Distance != 70 || s.Calories != 4 {
		t.Errorf("Expected counters rehydrated from today's record, got %+v", s)
	}

	// rollover to a date without a record
	if err := e.StartDay(ctx, "2024-01-02"); err != nil {
		t.Fatalf("Failed to roll over: %v", err)
	}
	if s := e.Snapshot(); s.Date != "2024-01-02" || s.Steps != 0 || s.Distance != 0 || s.Calories != 0 {
		t.Errorf("Expected zeroed counters for the new day, got %+v", s)
	}

	if err := e.StartDay(ctx, "tomorrow"); !errors.Is(err, activity.ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}

	store.loadErr = errors.New("disk unavailable")
	if err := e.StartDay(ctx, "2024-01-03"); err == nil {
		t.Error("Expected storage read failure to surface")
	}
}

func TestEstimator_Reset(t *testing.T) {
	e := newStartedEstimator(t, newMemoryStore())
	feed(t, e, motion.Sample{}, motion.Sample{X: 20})

	e.Reset()
	s := e.Snapshot()
	if s.Steps != 0 || s.Distance != 0 || s.Calories != 0 {
		t.Errorf("Expected zeroed counters, got %+v", s)
	}
	if s.Date != "2024-01-01" {
		t.Errorf("Expected the session date to be kept, got %s", s.Date)
	}
}

func TestEstimator_Progress(t *testing.T) {
	store := newMemoryStore()
	store.records["2024-01-01"] = activity.DailyRecord{Date: "2024-01-01", Steps: 2500}

	e := NewEstimator(store, activity.Profile{StepGoal: 10_000})
	if err := e.StartDay(context.Background(), "2024-01-01"); err != nil {
		t.Fatalf("Failed to start day: %v", err)
	}
	if p := e.Progress(); p != 0.25 {
		t.Errorf("Expected progress 0.25, got %f", p)
	}

	noGoal := newStartedEstimator(t, newMemoryStore())
	if p := noGoal.Progress(); p != 0 {
		t.Errorf("Expected zero progress without a goal, got %f", p)
	}
}

func TestEstimator_CustomThresholdAndFormula(t *testing.T) {
	store := newMemoryStore()
	e := NewEstimator(store, activity.Profile{WeightKg: 70, HeightCm: 180},
		WithThreshold(2),
		WithFormula(Stride{}))
	if err := e.StartDay(context.Background(), "2024-01-01"); err != nil {
		t.Fatalf("Failed to start day: %v", err)
	}

	feed(t, e, motion.Sample{}, motion.Sample{X: 3})

	s := e.Snapshot()
	if s.Steps != 1 {
		t.Fatalf("Expected 1 step with threshold 2, got %d", s.Steps)
	}
	if want := (Stride{}).Distance(1, e.Profile()); s.Distance != want {
		t.Errorf("Expected stride distance %f, got %f", want, s.Distance)
	}
}
