package alarm

import (
	"time"

	"sleepvoice-server-go/internal/domain/handlers/common"
)

// DescribeRing phrases a future ring time relative to now: "<time> today",
// "<time> tomorrow", "<time> this <Weekday>" within the same ISO week, and
// "<time> next <Weekday>" otherwise. Day distance uses calendar dates, so a
// ring on January 1st seen from December 31st is "tomorrow".
func DescribeRing(ring, now time.Time) string {
	ring = ring.In(now.Location())
	clock := common.FormatTime(ring)

	switch dayDiff(now, ring) {
	case 0:
		return clock + " today"
	case 1:
		return clock + " tomorrow"
	}

	ringYear, ringWeek := ring.ISOWeek()
	nowYear, nowWeek := now.ISOWeek()
	if ringYear == nowYear && ringWeek == nowWeek {
		return clock + " this " + ring.Weekday().String()
	}
	return clock + " next " + ring.Weekday().String()
}

// dayDiff counts calendar days from a to b, ignoring time of day and DST.
func dayDiff(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
