package app

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/step-tracker/internal/activity"
	"github.com/roman-kulish/step-tracker/internal/storage"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	testNow       = time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local)
)

func newTestDB(t *testing.T, records ...activity.DailyRecord) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fitness.sqlite")
	store := storage.NewSqliteStore(path)
	defer store.Close()

	for _, r := range records {
		if err := store.Upsert(context.Background(), r); err != nil {
			t.Fatalf("Failed to seed %+v: %v", r, err)
		}
	}
	if len(records) == 0 {
		if _, err := store.ListAll(context.Background()); err != nil {
			t.Fatalf("Failed to create database: %v", err)
		}
	}
	return path
}

var seedRecords = []activity.DailyRecord{
	{Date: "2024-03-01", Steps: 4000, Distance: 2800, Calories: 160},
	{Date: "2024-03-03", Steps: 12345, Distance: 8641.5, Calories: 493.8},
	{Date: "2024-03-05", Steps: 100, Distance: 70, Calories: 4},
}

func runTest(t *testing.T, config *Config) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(context.Background(), config, discardLogger, &out, testNow)
	return out.String(), err
}

func TestRun_List(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.Goal = 10000

	out, err := runTest(t, config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{"2024-03-01", "2024-03-03", "12,345", "8.64 km", "493.8 kcal", "70 m", "goal", "16,445"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Index(out, "2024-03-05") > strings.Index(out, "2024-03-01") {
		t.Errorf("Expected newest record first, got:\n%s", out)
	}
}

func TestRun_ListLastDays(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.Days = 3

	out, err := runTest(t, config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.Contains(out, "2024-03-01") {
		t.Errorf("Expected 2024-03-01 to be filtered out, got:\n%s", out)
	}
	if !strings.Contains(out, "2024-03-03") || !strings.Contains(out, "2024-03-05") {
		t.Errorf("Expected the last 3 days, got:\n%s", out)
	}
}

func TestRun_ListEmpty(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t)

	out, err := runTest(t, config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "no daily records") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestRun_MissingDatabase(t *testing.T) {
	config := NewConfig()
	config.DBPath = filepath.Join(t.TempDir(), "missing.sqlite")

	if _, err := runTest(t, config); err == nil {
		t.Error("Expected an error for a missing database")
	}
}

func TestRun_Share(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.Share = true

	out, err := runTest(t, config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "Check out my progress on the X-Fitness App! 2024-03-05: 100 steps, 70 m, 4.0 kcal\n"
	if out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestShareMessage_NoRecords(t *testing.T) {
	if got := ShareMessage(nil); got != "Check out my progress on the X-Fitness App!" {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestRun_ClearRequiresConfirmation(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.Clear = true

	if _, err := runTest(t, config); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Expected ErrNotConfirmed, got %v", err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != len(seedRecords) {
		t.Errorf("Expected records to be kept, got %d", len(records))
	}
}

func TestRun_Clear(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.Clear = true
	config.Confirmed = true

	out, err := runTest(t, config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "removed 3 daily records") {
		t.Errorf("Unexpected output: %q", out)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestRun_Chart(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t, seedRecords...)
	config.ChartFile = filepath.Join(t.TempDir(), "steps.png")
	config.Goal = 10000

	if _, err := runTest(t, config); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	f, err := os.Open(config.ChartFile)
	if err != nil {
		t.Fatalf("Failed to open chart: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode chart: %v", err)
	}

	renderer, _ := NewChartRenderer(RenderConfig{})
	area := renderer.PlotArea(5) // 2024-03-01 to 2024-03-05, gaps filled
	if got, want := img.Bounds().Dx(), area.Max.X+defaultRightBorder; got != want {
		t.Errorf("Expected width %d, got %d", want, got)
	}
	if got, want := img.Bounds().Dy(), area.Max.Y+defaultBottomBorder; got != want {
		t.Errorf("Expected height %d, got %d", want, got)
	}
}

func TestRun_ChartNoData(t *testing.T) {
	config := NewConfig()
	config.DBPath = newTestDB(t)
	config.ChartFile = filepath.Join(t.TempDir(), "steps.png")

	if _, err := runTest(t, config); err == nil {
		t.Error("Expected an error when there is nothing to chart")
	}
}
