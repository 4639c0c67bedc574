package motion

import (
	"math"
	"time"
)

// Sample represents a single tri-axis accelerometer reading
type Sample struct {
	Timestamp time.Time // Time the reading was taken, or received when the source does not report it
	X         float64   // X-axis acceleration in m/s²
	Y         float64   // Y-axis acceleration in m/s²
	Z         float64   // Z-axis acceleration in m/s²
}

// Magnitude returns the Euclidean norm of the three axis readings.
// A sensor dropout reporting NaN or Inf on any axis yields a non-finite magnitude.
func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}
