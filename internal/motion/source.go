package motion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ParseErrorsThreshold defines the number of consecutive parse errors allowed
	ParseErrorsThreshold = 5
)

var (
	// ErrTooManyParseErrors is returned when the number of consecutive parse errors exceeds the threshold
	ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

	// ErrBrokenPipe is returned when there's an error reading from stdout or stderr
	ErrBrokenPipe = errors.New("broken pipe")
)

// Stream is an opened, line-oriented sample feed.
type Stream struct {
	Stdout io.Reader    // Sample lines
	Stderr io.Reader    // Optional diagnostics, logged as warnings
	Wait   func() error // Optional, blocks until the producer exits; called once Stdout and Stderr are drained
	Close  func() error // Optional, releases the feed once collection stops
}

// Handler opens the underlying sample feed for a Source
type Handler interface {
	Open(ctx context.Context) (*Stream, error)
	Name() string
}

// WithLogger sets the logger for the source
func WithLogger(logger *slog.Logger) func(s *Source) {
	return func(s *Source) {
		s.logger = logger.With(slog.String("source", s.handler.Name()))
	}
}

// WithParseErrorsThreshold sets the threshold for consecutive parse errors
func WithParseErrorsThreshold(threshold uint8) func(s *Source) {
	return func(s *Source) {
		s.parseErrorsThreshold = threshold
	}
}

// WithClock sets the clock used to timestamp lines which do not carry a timestamp
func WithClock(now func() time.Time) func(s *Source) {
	return func(s *Source) {
		s.now = now
	}
}

// Source represents a motion sensor feed that can be subscribed to (samples collection) and stopped
type Source struct {
	handler Handler

	isSampling atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	parseErrorsThreshold uint8
	now                  func() time.Time
	logger               *slog.Logger
}

// NewSource creates a new Source instance with a discard logger
func NewSource(h Handler, options ...func(s *Source)) *Source {
	s := Source{
		handler:              h,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		parseErrorsThreshold: ParseErrorsThreshold,
		now:                  time.Now,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// BeginSampling subscribes to the feed and sends parsed samples to the samples channel.
// The returned channel is closed when collection stops, after receiving the joined
// collection errors, if any. Collection stops when the feed is exhausted, ctx is
// cancelled or Stop is called.
func (s *Source) BeginSampling(ctx context.Context, samples chan<- Sample) (<-chan error, error) {
	if !s.isSampling.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("source is already sampling")
	}

	ctx, cancel := context.WithCancel(ctx)

	stream, err := s.handler.Open(ctx)
	if err != nil {
		cancel()
		s.isSampling.Store(false) // Reset running state on error
		return nil, fmt.Errorf("opening %s: %w", s.handler.Name(), err)
	}

	s.cancel = cancel
	samplingStopped := make(chan error, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(samplingStopped)
		defer cancel()

		s.logger.Info("starting samples collection...")

		readers := 1
		if stream.Stderr != nil {
			readers++
		}

		done := make(chan error, readers)

		go s.handleStdout(ctx, stream.Stdout, samples, done)
		if stream.Stderr != nil {
			go s.handleStderr(ctx, stream.Stderr, done)
		}

		var errs []error
		for i := 0; i < readers; i++ {
			if err := <-done; err != nil {
				cancel() // cancel context on error
				s.logger.Error(err.Error())

				errs = append(errs, err)
			}
		}

		// Wait closes the producer pipes, so it runs only once both are drained
		if stream.Wait != nil {
			if err := s.handleWait(ctx, stream.Wait); err != nil {
				s.logger.Error(err.Error())

				errs = append(errs, err)
			}
		}

		if stream.Close != nil {
			if err := stream.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
				errs = append(errs, fmt.Errorf("closing %s: %w", s.handler.Name(), err))
			}
		}

		s.logger.Info("samples collection stopped")
		s.isSampling.Store(false)

		if len(errs) > 0 {
			samplingStopped <- errors.Join(errs...)
		}
	}()

	return samplingStopped, nil
}

// Stop unsubscribes from the feed and waits for collection to finish
func (s *Source) Stop() {
	if !s.isSampling.Load() {
		return // already stopped
	}

	s.cancel()
	s.wg.Wait()
}

// IsSampling returns true if the source is collecting samples
func (s *Source) IsSampling() bool {
	return s.isSampling.Load()
}

// handleStdout reads from stdout, parses and sends samples to the samples channel.
func (s *Source) handleStdout(ctx context.Context, stdout io.Reader, samples chan<- Sample, done chan<- error) {
	var parseErrors uint8

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := ParseLine(line, s.now())
		if err != nil {
			parseErrors++
			s.logger.Warn(fmt.Sprintf("error parsing sample: %s", err.Error()), slog.String("line", line))

			if parseErrors >= s.parseErrorsThreshold {
				done <- ErrTooManyParseErrors
				return
			}

			continue
		}

		parseErrors = 0 // reset counter

		select {
		case samples <- sample:
		case <-ctx.Done():
			done <- nil
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		done <- fmt.Errorf("%w: error reading stdout: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleStderr reads from stderr and logs it.
func (s *Source) handleStderr(ctx context.Context, stderr io.Reader, done chan<- error) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		s.logger.Warn(fmt.Sprintf("%s >> %s", s.handler.Name(), line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleWait waits for the producer to exit. An exit caused by cancellation is not an error.
func (s *Source) handleWait(ctx context.Context, wait func() error) error {
	if err := wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s exited with error: %w", s.handler.Name(), err)
	}

	return nil
}
