package motion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidLine is returned when a line cannot be parsed into a Sample
var ErrInvalidLine = errors.New("invalid sample line")

// ParseLine parses one line of sensor logger output. Two layouts are accepted:
//
//	x,y,z
//	timestamp,x,y,z
//
// Fields may be separated by commas, semicolons or whitespace. The timestamp is
// either RFC 3339 or unix milliseconds. When the line carries no timestamp, now is used.
func ParseLine(line string, now time.Time) (Sample, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	var s Sample
	switch len(fields) {
	case 3:
		s.Timestamp = now

	case 4:
		ts, err := parseTimestamp(fields[0])
		if err != nil {
			return Sample{}, err
		}
		s.Timestamp = ts
		fields = fields[1:]

	default:
		return Sample{}, fmt.Errorf("%w: expected 3 or 4 fields, got %d", ErrInvalidLine, len(fields))
	}

	axes := []*float64{&s.X, &s.Y, &s.Z}
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: axis %d: %w", ErrInvalidLine, i, err)
		}
		*axes[i] = v
	}

	return s, nil
}

func parseTimestamp(field string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, field); err == nil {
		return ts, nil
	}

	ms, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrInvalidLine, field)
	}
	return time.UnixMilli(ms), nil
}
