package app

import (
	"image/color"
	"math"
)

var (
	noGoalColor   = color.RGBA{R: 0x57, G: 0x8f, B: 0xd9, A: 0xff}
	goalLineColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	axisColor     = color.Black
)

// progressStops are the bar colors at 0%, 50% and 100% of the daily goal
var progressStops = []color.RGBA{
	{R: 0xd9, G: 0x36, B: 0x36, A: 0xff}, // red
	{R: 0xe6, G: 0xb4, B: 0x22, A: 0xff}, // amber
	{R: 0x36, G: 0xb3, B: 0x4a, A: 0xff}, // green
}

// barColor returns the color of a day with the given goal progress
func barColor(steps, goal int) color.Color {
	if goal <= 0 {
		return noGoalColor
	}

	progress := math.Min(float64(steps)/float64(goal), 1)

	pos := progress * float64(len(progressStops)-1)
	i := min(int(pos), len(progressStops)-2)
	return mixRGBA(progressStops[i], progressStops[i+1], pos-float64(i))
}

// mixRGBA blends a into b, t in [0-1]
func mixRGBA(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
