package stats

import "time"

const weekendDuration = 48 * time.Hour

// BusinessDuration returns the time between a review request and its
// response, minus two days for every ISO week boundary crossed. Only the
// week numbers are compared, so a response in the first week of a new year
// yields a negative correction and adds time back. The second result is
// false when either instant is missing.
func BusinessDuration(requestedAt, respondedAt time.Time) (time.Duration, bool) {
	if requestedAt.IsZero() || respondedAt.IsZero() {
		return 0, false
	}

	_, requestWeek := requestedAt.ISOWeek()
	_, responseWeek := respondedAt.ISOWeek()
	weekends := time.Duration(responseWeek - requestWeek)

	return respondedAt.Sub(requestedAt) - weekends*weekendDuration, true
}
