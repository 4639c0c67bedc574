package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/storage"
)

// ChartData holds the days drawn on the chart, oldest first, with gap days as
// zero records.
type ChartData struct {
	Days     []activity.DailyRecord
	Goal     int
	MaxSteps int
	Total    activity.DailyRecord
}

func NewChartData(goal int) *ChartData {
	return &ChartData{Goal: goal}
}

func (c *ChartData) Update(r *activity.DailyRecord) {
	c.Days = append(c.Days, *r)
	c.MaxSteps = max(c.MaxSteps, r.Steps)

	c.Total.Steps += r.Steps
	c.Total.Distance += r.Distance
	c.Total.Calories += r.Calories
}

// ScaleMax is the step count drawn at the top of the plot
func (c *ChartData) ScaleMax() int {
	return max(c.MaxSteps, c.Goal, 1)
}

func renderChart(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger, now time.Time) error {
	var opts []storage.ReaderOption
	if config.Days > 0 {
		opts = append(opts, storage.WithLastDays(config.Days, now))
	}

	iter, err := store.ReadHistory(ctx, opts...)
	if err != nil {
		return err
	}
	defer iter.Close()

	data := NewChartData(config.Goal)
	for iter.Next(ctx) {
		data.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return err
	}
	if len(data.Days) == 0 {
		return fmt.Errorf("no daily records to chart")
	}

	logger.Info("rendering chart",
		slog.Group("image",
			slog.String("destination", config.ChartFile),
			slog.String("format", string(config.Format)),
			slog.Int("days", len(data.Days)),
			slog.String("steps", humanize.Comma(int64(data.Total.Steps))),
		))

	renderer, err := NewChartRenderer(RenderConfig{})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}

	img, err := renderer.Render(data)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	return writeImage(config.ChartFile, config.Format, img)
}
