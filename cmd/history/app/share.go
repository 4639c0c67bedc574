package app

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/step-tracker/internal/activity"
)

const shareText = "Check out my progress on the X-Fitness App!"

// ShareMessage builds the text shared with other apps. The most recent record,
// the first one of a newest first list, is appended when present.
func ShareMessage(records []activity.DailyRecord) string {
	if len(records) == 0 {
		return shareText
	}

	r := records[0]
	return fmt.Sprintf("%s %s: %s steps, %s, %.1f kcal",
		shareText, r.Date, humanize.Comma(int64(r.Steps)), formatDistance(r.Distance), r.Calories)
}
