package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_samples_total",
			Help: "Total number of motion samples processed",
		},
		[]string{"source"},
	)

	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_steps_total",
			Help: "Total number of steps detected",
		},
		[]string{"source"},
	)

	WriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_write_failures_total",
			Help: "Total number of failed write-throughs to the record store",
		},
		[]string{"source"},
	)

	DailySteps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_daily_steps",
			Help: "Steps counted for the current date",
		},
	)

	DailyDistanceMeters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_daily_distance_meters",
			Help: "Distance travelled on the current date",
		},
	)

	DailyCalories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_daily_calories",
			Help: "Calories burned on the current date",
		},
	)

	GoalProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_goal_progress_ratio",
			Help: "Fraction of the daily step goal reached",
		},
	)
)

// RecordSession publishes the running totals of the current date
func RecordSession(steps int, distance, calories, progress float64) {
	DailySteps.Set(float64(steps))
	DailyDistanceMeters.Set(distance)
	DailyCalories.Set(calories)
	GoalProgress.Set(progress)
}
