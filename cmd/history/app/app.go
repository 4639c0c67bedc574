package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/storage"
)

// ErrNotConfirmed is returned when clearing the history without -yes
var ErrNotConfirmed = errors.New("clearing the history requires confirmation, rerun with -yes")

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	return run(ctx, config, logger, os.Stdout, time.Now())
}

func run(ctx context.Context, config *Config, logger *slog.Logger, out io.Writer, now time.Time) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.Clear {
		return clearHistory(ctx, store, config, out)
	}

	records, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}
	records = lastDays(records, config.Days, now)

	if config.Share {
		if _, err = fmt.Fprintln(out, ShareMessage(records)); err != nil {
			return err
		}
	} else if err = printRecords(out, records, config.Goal); err != nil {
		return err
	}

	if config.ChartFile == "" {
		return nil
	}
	return renderChart(ctx, store, config, logger, now)
}

func clearHistory(ctx context.Context, store storage.Store, config *Config, out io.Writer) error {
	if !config.Confirmed {
		return ErrNotConfirmed
	}

	removed, err := store.ClearAll(ctx)
	if err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	_, err = fmt.Fprintf(out, "removed %s daily records\n", humanize.Comma(removed))
	return err
}

// lastDays keeps the records of the n days ending with now; records must be ordered newest first
func lastDays(records []activity.DailyRecord, n int, now time.Time) []activity.DailyRecord {
	if n <= 0 {
		return records
	}

	first := activity.DateOf(now.AddDate(0, 0, 1-n))
	for i, r := range records {
		if r.Date < first {
			return records[:i]
		}
	}
	return records
}

func printRecords(out io.Writer, records []activity.DailyRecord, goal int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no daily records")
		return err
	}

	reached := color.New(color.FgGreen, color.Bold)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tSTEPS\tDISTANCE\tCALORIES\t")

	var total activity.DailyRecord
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f kcal\t", r.Date, humanize.Comma(int64(r.Steps)), formatDistance(r.Distance), r.Calories)
		if goal > 0 && r.Steps >= goal {
			reached.Fprint(tw, " goal")
		}
		fmt.Fprintln(tw)

		total.Steps += r.Steps
		total.Distance += r.Distance
		total.Calories += r.Calories
	}

	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%.1f kcal\t\n", humanize.Comma(int64(total.Steps)), formatDistance(total.Distance), total.Calories)
	return tw.Flush()
}

// formatDistance formats meters with an SI prefix, e.g. "1.25 km"
func formatDistance(meters float64) string {
	return humanize.SIWithDigits(meters, 2, "m")
}
