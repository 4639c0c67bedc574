package app

import (
	"flag"
	"io"
	"testing"
)

func parseTestArgs(args ...string) (*Config, error) {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parseArgs(fs, args)
}

func TestParseArgs(t *testing.T) {
	config, err := parseTestArgs("-db", "fitness.sqlite", "-chart", "steps", "-f", "JPEG", "-goal", "8000", "-days", "7")
	if err != nil {
		t.Fatalf("Failed to parse args: %v", err)
	}

	if config.DBPath != "fitness.sqlite" {
		t.Errorf("Expected db path fitness.sqlite, got %q", config.DBPath)
	}
	if config.Format != ImageJPEG {
		t.Errorf("Expected jpeg format, got %q", config.Format)
	}
	if config.ChartFile != "steps.jpeg" {
		t.Errorf("Expected extension to be appended, got %q", config.ChartFile)
	}
	if config.Goal != 8000 || config.Days != 7 {
		t.Errorf("Unexpected goal or days: %+v", config)
	}
}

func TestParseArgs_KeepsExtension(t *testing.T) {
	config, err := parseTestArgs("-db", "fitness.sqlite", "-chart", "out/steps.png")
	if err != nil {
		t.Fatalf("Failed to parse args: %v", err)
	}
	if config.ChartFile != "out/steps.png" {
		t.Errorf("Expected chart file to be kept, got %q", config.ChartFile)
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing db", nil},
		{"negative goal", []string{"-db", "x", "-goal", "-1"}},
		{"negative days", []string{"-db", "x", "-days", "-3"}},
		{"clear with share", []string{"-db", "x", "-clear", "-share"}},
		{"clear with chart", []string{"-db", "x", "-clear", "-chart", "out"}},
		{"unknown format", []string{"-db", "x", "-f", "gif"}},
		{"unknown flag", []string{"-db", "x", "-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseTestArgs(tt.args...); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}
