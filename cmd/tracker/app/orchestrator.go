package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/metrics"
	"github.com/roman-kulish/step-tracker/internal/motion"
	"github.com/roman-kulish/step-tracker/internal/pedometer"
)

const (
	sampleBufferSize = 64
	writeTimeout     = 5 * time.Second
	stopTimeout      = 2 * time.Second
)

// WithDailyRollover makes the orchestrator start a new day once the wall clock
// date differs from the session date.
func WithDailyRollover(enabled bool) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.dailyRollover = enabled
	}
}

// WithStatusInterval sets how often the current session is logged
func WithStatusInterval(interval time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.statusInterval = interval
	}
}

// WithStopTimeout sets how long Run waits for the source to stop once ctx is
// cancelled. A read from a terminal or a blocking stdin pipe is not interrupted
// by closing it, so such a source is abandoned after the timeout.
func WithStopTimeout(timeout time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.stopTimeout = timeout
	}
}

// WithClock replaces the wall clock used for day boundaries
func WithClock(now func() time.Time) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator feeds samples from a motion source into the step estimator on a
// single goroutine. Every detected step is written through to the store by the
// estimator; failures are logged and counted, and sampling continues.
type Orchestrator struct {
	source     *motion.Source
	sourceName string
	estimator  *pedometer.Estimator
	logger     *slog.Logger

	now            func() time.Time
	dailyRollover  bool
	statusInterval time.Duration
	stopTimeout    time.Duration
	goalReported   bool
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(source *motion.Source, sourceName string, estimator *pedometer.Estimator, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		source:      source,
		sourceName:  sourceName,
		estimator:   estimator,
		logger:      logger,
		now:         time.Now,
		stopTimeout: stopTimeout,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run starts the day, subscribes to the source and processes samples until the
// source stops or ctx is cancelled. Source failures are returned. After
// cancellation Run waits at most the stop timeout for the source to stop.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.startDay(ctx, activity.DateOf(o.now())); err != nil {
		return err
	}

	samples := make(chan motion.Sample, sampleBufferSize)
	done, err := o.source.BeginSampling(ctx, samples)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", o.sourceName, err)
	}

	var status <-chan time.Time
	if o.statusInterval > 0 {
		ticker := time.NewTicker(o.statusInterval)
		defer ticker.Stop()

		status = ticker.C
	}

	for {
		select {
		case sample := <-samples:
			o.handleSample(ctx, sample)

		case <-status:
			o.logStatus()

		case err, ok := <-done:
			return o.finish(samples, err, ok)

		case <-ctx.Done():
			select {
			case err, ok := <-done:
				return o.finish(samples, err, ok)

			case <-time.After(o.stopTimeout):
				o.logger.Warn(fmt.Sprintf("%s did not stop within %s, abandoning it", o.sourceName, o.stopTimeout))
				o.logStatus()
				return nil
			}
		}
	}
}

// finish processes samples buffered before the source stopped and reports its error
func (o *Orchestrator) finish(samples chan motion.Sample, err error, ok bool) error {
	for len(samples) > 0 {
		o.handleSample(context.Background(), <-samples)
	}
	o.logStatus()

	if ok && err != nil {
		return fmt.Errorf("sampling %s: %w", o.sourceName, err)
	}
	return nil
}

func (o *Orchestrator) startDay(ctx context.Context, date string) error {
	if err := o.estimator.StartDay(ctx, date); err != nil {
		return fmt.Errorf("starting day %s: %w", date, err)
	}

	session := o.estimator.Snapshot()
	o.goalReported = o.goalReached()
	o.publish(session)

	o.logger.Info("day started",
		slog.String("date", session.Date),
		slog.String("steps", humanize.Comma(int64(session.Steps))))

	return nil
}

func (o *Orchestrator) handleSample(ctx context.Context, sample motion.Sample) {
	if o.dailyRollover {
		if today := activity.DateOf(o.now()); today != o.estimator.Snapshot().Date {
			o.logStatus()

			if err := o.startDay(ctx, today); err != nil {
				o.logger.Error(err.Error())
			}
		}
	}

	metrics.SamplesTotal.WithLabelValues(o.sourceName).Inc()

	// the step is persisted even when shutdown has already cancelled ctx
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	stepped, err := o.estimator.OnSample(writeCtx, sample)
	if err != nil {
		metrics.WriteFailuresTotal.WithLabelValues(o.sourceName).Inc()
		o.logger.Error(fmt.Sprintf("saving daily record: %s", err.Error()))
	}
	if !stepped {
		return
	}

	metrics.StepsTotal.WithLabelValues(o.sourceName).Inc()

	session := o.estimator.Snapshot()
	o.publish(session)

	o.logger.Debug("step detected", slog.Int("steps", session.Steps))

	if !o.goalReported && o.goalReached() {
		o.goalReported = true

		o.logger.Info("daily step goal reached",
			slog.String("date", session.Date),
			slog.String("steps", humanize.Comma(int64(session.Steps))))
	}
}

func (o *Orchestrator) goalReached() bool {
	return o.estimator.Profile().StepGoal > 0 && o.estimator.Progress() >= 1
}

func (o *Orchestrator) publish(session pedometer.Session) {
	metrics.RecordSession(session.Steps, session.Distance, session.Calories, o.estimator.Progress())
}

func (o *Orchestrator) logStatus() {
	session := o.estimator.Snapshot()

	o.logger.Info("daily progress",
		slog.String("date", session.Date),
		slog.String("steps", humanize.Comma(int64(session.Steps))),
		slog.String("distance", humanize.SIWithDigits(session.Distance, 2, "m")),
		slog.String("calories", fmt.Sprintf("%.1f kcal", session.Calories)),
		slog.String("goal", fmt.Sprintf("%.0f%%", o.estimator.Progress()*100)))
}
