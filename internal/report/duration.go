package report

import (
	"math"
	"strconv"
	"time"
)

const day = 24 * time.Hour

// FormatDuration renders d in the short form "3d", "5h", "12m", "40s" or
// "250ms", rounded to the largest unit not exceeding |d|.
func FormatDuration(d time.Duration) string {
	abs := d.Abs()
	switch {
	case abs >= day:
		return formatUnit(d, day, "d")
	case abs >= time.Hour:
		return formatUnit(d, time.Hour, "h")
	case abs >= time.Minute:
		return formatUnit(d, time.Minute, "m")
	case abs >= time.Second:
		return formatUnit(d, time.Second, "s")
	default:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}
}

func formatUnit(d, unit time.Duration, suffix string) string {
	return strconv.FormatFloat(math.Round(float64(d)/float64(unit)), 'f', -1, 64) + suffix
}
