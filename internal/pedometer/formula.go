package pedometer

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

const (
	FlatRateFormula = "flat"
	StrideFormula   = "stride"

	flatStrideMeters     = 0.7
	flatCaloriesPerStep  = 0.04
	strideHeightFactor   = 0.415 // Stride length as a fraction of body height
	strideCaloriesFactor = 1.036 // kcal per kilogram of body weight per distance unit
)

// ErrUnknownFormula is returned when a formula name does not match any strategy
var ErrUnknownFormula = errors.New("unknown formula")

// Formula converts a step count into distance (meters) and calories (kcal).
// Both results must be non-decreasing in steps.
type Formula interface {
	Name() string
	Distance(steps int, p activity.Profile) float64
	Calories(steps int, distance float64, p activity.Profile) float64
}

// FormulaByName returns the formula strategy registered under name.
// An empty name selects FlatRate.
func FormulaByName(name string) (Formula, error) {
	switch name {
	case FlatRateFormula, "":
		return FlatRate{}, nil
	case StrideFormula:
		return Stride{}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownFormula, name)
	}
}

// FlatRate assumes a 0.7 m stride and 0.04 kcal per step regardless of the profile.
type FlatRate struct{}

func (FlatRate) Name() string {
	return FlatRateFormula
}

func (FlatRate) Distance(steps int, _ activity.Profile) float64 {
	return float64(steps) * flatStrideMeters
}

func (FlatRate) Calories(steps int, _ float64, _ activity.Profile) float64 {
	return float64(steps) * flatCaloriesPerStep
}

// Stride derives distance from body height and calories from body weight:
//
//	km       = steps * height_cm * 0.415 / 1000
//	calories = km * weight_kg * 1.036
//
// Distance is reported as km * 1000 so both strategies persist meters.
// A profile without height or weight yields zero.
type Stride struct{}

func (Stride) Name() string {
	return StrideFormula
}

func (Stride) Distance(steps int, p activity.Profile) float64 {
	return strideKm(steps, p) * 1000
}

func (Stride) Calories(steps int, _ float64, p activity.Profile) float64 {
	return strideKm(steps, p) * p.WeightKg * strideCaloriesFactor
}

func strideKm(steps int, p activity.Profile) float64 {
	return float64(steps) * p.HeightCm * strideHeightFactor / 1000
}
