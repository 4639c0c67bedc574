package app

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

const (
	fontSize       = 10.0
	tickMarkLength = 5
	dashLength     = 4
	minPlotWidth   = 360

	defaultBarWidth   = 24
	defaultBarGap     = 8
	defaultPlotHeight = 240

	// Default border sizes in pixels
	defaultTopBorder    = 30
	defaultLeftBorder   = 70
	defaultBottomBorder = 60
	defaultRightBorder  = 20
)

// BorderConfig defines the sizes of white space around the plot
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for the step scale
	Bottom int // Space for date labels and the summary line
	Right  int // Right padding
}

// RenderConfig holds the chart layout options
type RenderConfig struct {
	BarWidth   int
	BarGap     int
	PlotHeight int
	FontSize   float64

	BorderConfig BorderConfig
}

// ChartRenderer draws daily step counts as a bar chart
type ChartRenderer struct {
	config RenderConfig
}

// NewChartRenderer creates a new chart renderer with the given configuration
func NewChartRenderer(config RenderConfig) (*ChartRenderer, error) {
	if config.BarWidth < 0 || config.BarGap < 0 || config.PlotHeight < 0 {
		return nil, errors.New("chart dimensions must not be negative")
	}

	if config.BarWidth == 0 {
		config.BarWidth = defaultBarWidth
	}
	if config.BarGap == 0 {
		config.BarGap = defaultBarGap
	}
	if config.PlotHeight == 0 {
		config.PlotHeight = defaultPlotHeight
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &ChartRenderer{config: config}, nil
}

// PlotArea returns the rectangle holding the bars of n days
func (r *ChartRenderer) PlotArea(n int) image.Rectangle {
	width := max(r.config.BarGap+n*(r.config.BarWidth+r.config.BarGap), minPlotWidth)
	return image.Rect(
		r.config.BorderConfig.Left,
		r.config.BorderConfig.Top,
		r.config.BorderConfig.Left+width,
		r.config.BorderConfig.Top+r.config.PlotHeight,
	)
}

// BarRect returns the rectangle of the i-th bar for the given step count
func (r *ChartRenderer) BarRect(data *ChartData, i int) image.Rectangle {
	area := r.PlotArea(len(data.Days))

	x := area.Min.X + r.config.BarGap + i*(r.config.BarWidth+r.config.BarGap)
	height := r.scaleY(data.Days[i].Steps, data.ScaleMax())

	return image.Rect(x, area.Max.Y-height, x+r.config.BarWidth, area.Max.Y)
}

// Render creates an image of the chart data with annotations
func (r *ChartRenderer) Render(data *ChartData) (*image.RGBA, error) {
	if len(data.Days) == 0 {
		return nil, errors.New("no days to render")
	}

	area := r.PlotArea(len(data.Days))
	img := image.NewRGBA(image.Rect(0, 0, area.Max.X+r.config.BorderConfig.Right, area.Max.Y+r.config.BorderConfig.Bottom))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	r.renderBars(img, data)
	r.renderAxes(img, area)
	if data.Goal > 0 {
		r.renderGoalLine(img, area, data)
	}

	ann, err := newAnnotator(annotatorConfig{
		FontSize: r.config.FontSize,
		Borders:  r.config.BorderConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, area, r, data); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return img, nil
}

func (r *ChartRenderer) renderBars(img *image.RGBA, data *ChartData) {
	for i, day := range data.Days {
		if day.Steps == 0 {
			continue // gap days stay empty
		}

		bar := r.BarRect(data, i)
		draw.Draw(img, bar, image.NewUniform(barColor(day.Steps, data.Goal)), image.Point{}, draw.Src)
	}
}

func (r *ChartRenderer) renderAxes(img *image.RGBA, area image.Rectangle) {
	for y := area.Min.Y; y <= area.Max.Y; y++ {
		img.Set(area.Min.X-1, y, axisColor)
	}
	for x := area.Min.X - 1; x < area.Max.X; x++ {
		img.Set(x, area.Max.Y, axisColor)
	}
}

func (r *ChartRenderer) renderGoalLine(img *image.RGBA, area image.Rectangle, data *ChartData) {
	y := r.GoalY(data)
	for x := area.Min.X; x < area.Max.X; x++ {
		if ((x-area.Min.X)/dashLength)%2 == 0 {
			img.Set(x, y, goalLineColor)
		}
	}
}

// GoalY returns the row of the goal line
func (r *ChartRenderer) GoalY(data *ChartData) int {
	area := r.PlotArea(len(data.Days))
	return area.Max.Y - r.scaleY(data.Goal, data.ScaleMax())
}

func (r *ChartRenderer) scaleY(steps, scaleMax int) int {
	return int(float64(steps) / float64(scaleMax) * float64(r.config.PlotHeight))
}

// calculateNiceStepTick picks a scale tick size giving at most 5 ticks
func calculateNiceStepTick(scaleMax int) int {
	ticks := []int{
		10, 25, 50,
		100, 250, 500,
		1_000, 2_500, 5_000,
		10_000, 25_000, 50_000,
		100_000,
	}

	for _, tick := range ticks {
		if scaleMax/tick <= 5 {
			return tick
		}
	}
	return scaleMax / 5
}
