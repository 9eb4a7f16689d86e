package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var lookbackPattern = regexp.MustCompile(`^(\d*\.?\d+)\s*([a-z]*)$`)

var lookbackUnits = map[string]time.Duration{
	"":             time.Millisecond,
	"ms":           time.Millisecond,
	"msec":         time.Millisecond,
	"msecs":        time.Millisecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"secs":         time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"min":          time.Minute,
	"mins":         time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hr":           time.Hour,
	"hrs":          time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
	"w":            7 * 24 * time.Hour,
	"week":         7 * 24 * time.Hour,
	"weeks":        7 * 24 * time.Hour,
	"y":            365*24*time.Hour + 6*time.Hour,
	"yr":           365*24*time.Hour + 6*time.Hour,
	"yrs":          365*24*time.Hour + 6*time.Hour,
	"year":         365*24*time.Hour + 6*time.Hour,
	"years":        365*24*time.Hour + 6*time.Hour,
}

// ParseLookback parses a lookback window such as "7d", "36h", "2 weeks" or
// a Go duration string such as "1h30m". A bare number is milliseconds.
// The result must be positive.
func ParseLookback(value string) (time.Duration, error) {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return 0, fmt.Errorf("must not be empty")
	}

	d, err := parseLookback(text)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q must be positive", value)
	}
	return d, nil
}

func parseLookback(text string) (time.Duration, error) {
	if match := lookbackPattern.FindStringSubmatch(text); match != nil {
		unit, ok := lookbackUnits[match[2]]
		if !ok {
			return 0, fmt.Errorf("unknown unit %q", match[2])
		}
		n, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", match[1], err)
		}
		total := n * float64(unit)
		if total >= math.MaxInt64 {
			return 0, fmt.Errorf("%q is out of range", text)
		}
		return time.Duration(total), nil
	}

	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration like 7d or 36h", text)
	}
	return d, nil
}
