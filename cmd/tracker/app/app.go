package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roman-kulish/step-tracker/internal/motion"
	"github.com/roman-kulish/step-tracker/internal/pedometer"
	"github.com/roman-kulish/step-tracker/internal/storage"
)

const (
	storageDir      = "data"
	shutdownTimeout = 5 * time.Second
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	logger = logger.With(slog.String("run", uuid.NewString()))

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	handler, err := motion.NewHandler(&config.Source)
	if err != nil {
		return fmt.Errorf("failed to create motion source: %w", err)
	}

	formula, err := pedometer.FormulaByName(config.Estimator.Formula)
	if err != nil {
		return err
	}

	estimator := pedometer.NewEstimator(store, config.Profile,
		pedometer.WithThreshold(config.Estimator.Threshold),
		pedometer.WithFormula(formula),
		pedometer.WithLogger(logger))

	source := newSource(handler, logger)

	orchestrator := NewOrchestrator(source, handler.Name(), estimator, logger,
		WithDailyRollover(config.Settings.DailyRollover),
		WithStatusInterval(time.Duration(config.Settings.StatusInterval)))

	if config.Settings.MetricsAddr != "" {
		stop := serveMetrics(config.Settings.MetricsAddr, logger)
		defer stop()
	}

	logger.Info("tracker started",
		slog.String("source", handler.Name()),
		slog.String("formula", formula.Name()),
		slog.Int("goal", config.Profile.StepGoal))

	return orchestrator.Run(ctx)
}

// newSource creates the motion source, WithLogger tags its lines with the source name
func newSource(handler motion.Handler, logger *slog.Logger) *motion.Source {
	return motion.NewSource(handler, motion.WithLogger(logger))
}

func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("metrics server: %s", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("stopping metrics server: %s", err.Error()))
		}
	}
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dbPath := config.DataDirectory
	if dbPath == "" {
		dbPath = storageDir
	}

	dbPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving storage directory: %w", err)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	return storage.NewSqliteStore(filepath.Join(dbPath, config.FileName)), nil
}
