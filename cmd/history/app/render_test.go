package app

import (
	"image/color"
	"testing"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

func newTestChartData(goal int, steps ...int) *ChartData {
	data := NewChartData(goal)
	for i, s := range steps {
		data.Update(&activity.DailyRecord{
			Date:  activity.DateOf(testNow.AddDate(0, 0, i-len(steps)+1)),
			Steps: s,
		})
	}
	return data
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func TestChartRenderer_Render(t *testing.T) {
	renderer, err := NewChartRenderer(RenderConfig{})
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	data := newTestChartData(8000, 4000, 0, 12000)
	img, err := renderer.Render(data)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	area := renderer.PlotArea(len(data.Days))
	if got, want := img.Bounds().Dx(), area.Max.X+defaultRightBorder; got != want {
		t.Errorf("Expected width %d, got %d", want, got)
	}

	tests := []struct {
		name string
		bar  int
		want color.Color
	}{
		{"half way", 0, barColor(4000, 8000)},
		{"goal reached", 2, barColor(12000, 8000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderer.BarRect(data, tt.bar)
			center := bar.Min.Add(bar.Size().Div(2))
			if got := img.At(center.X, center.Y); !sameColor(got, tt.want) {
				t.Errorf("Expected bar color %v, got %v", tt.want, got)
			}
		})
	}

	// the gap day has no bar, its column stays white above the axis
	gap := renderer.BarRect(data, 1)
	if got := img.At(gap.Min.X+1, area.Max.Y-10); !sameColor(got, color.White) {
		t.Errorf("Expected an empty gap day, got %v", got)
	}

	// the goal line starts with a dash at the left edge of the plot
	if got := img.At(area.Min.X, renderer.GoalY(data)); !sameColor(got, goalLineColor) {
		t.Errorf("Expected the goal line at y=%d, got %v", renderer.GoalY(data), got)
	}
}

func TestChartRenderer_Scale(t *testing.T) {
	renderer, _ := NewChartRenderer(RenderConfig{PlotHeight: 100})

	data := newTestChartData(10000, 5000, 2500)
	if got := data.ScaleMax(); got != 10000 {
		t.Fatalf("Expected the goal to set the scale, got %d", got)
	}
	if got := renderer.BarRect(data, 0).Dy(); got != 50 {
		t.Errorf("Expected a bar of 50px, got %d", got)
	}
	if got := renderer.BarRect(data, 1).Dy(); got != 25 {
		t.Errorf("Expected a bar of 25px, got %d", got)
	}
}

func TestChartRenderer_Invalid(t *testing.T) {
	if _, err := NewChartRenderer(RenderConfig{BarWidth: -1}); err == nil {
		t.Error("Expected an error for a negative bar width")
	}

	renderer, _ := NewChartRenderer(RenderConfig{})
	if _, err := renderer.Render(NewChartData(0)); err == nil {
		t.Error("Expected an error for empty chart data")
	}
}

func TestBarColor(t *testing.T) {
	if !sameColor(barColor(100, 0), noGoalColor) {
		t.Error("Expected the neutral color without a goal")
	}
	if !sameColor(barColor(20000, 10000), barColor(10000, 10000)) {
		t.Error("Expected progress to be capped at the goal")
	}
	if got := barColor(10000, 10000).(color.RGBA); got.G <= got.R {
		t.Errorf("Expected a green bar once the goal is reached, got %v", got)
	}
	if got := barColor(0, 10000).(color.RGBA); got.R <= got.G {
		t.Errorf("Expected a red bar without progress, got %v", got)
	}
	if got := barColor(5000, 10000); !sameColor(got, progressStops[1]) {
		t.Errorf("Expected the amber stop half way, got %v", got)
	}
}

func TestCalculateNiceStepTick(t *testing.T) {
	tests := []struct {
		scaleMax int
		want     int
	}{
		{1, 10},
		{100, 25},
		{8000, 2500},
		{12000, 2500},
		{30000, 10000},
	}

	for _, tt := range tests {
		if got := calculateNiceStepTick(tt.scaleMax); got != tt.want {
			t.Errorf("calculateNiceStepTick(%d): expected %d, got %d", tt.scaleMax, tt.want, got)
		}
	}
}
