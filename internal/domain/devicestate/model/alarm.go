package model

import (
	"sort"
	"time"
)

// AlarmSource records where an alarm was created.
type AlarmSource string

const (
	SourceApp   AlarmSource = "app"
	SourceVoice AlarmSource = "voice"
)

// AlarmSound references the clip the device plays when ringing.
type AlarmSound struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Alarm is one entry of a device's alarm collection. Year/Month/Day are only
// meaningful for one-shot alarms; repeating alarms ring on DaysOfWeek
// (ISO weekdays, Monday=1 .. Sunday=7).
type Alarm struct {
	ID         string      `json:"id"`
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	Day        int         `json:"day_of_month"`
	Hour       int         `json:"hour"`
	Minute     int         `json:"minute"`
	DaysOfWeek []int       `json:"day_of_week,omitempty"`
	Repeated   bool        `json:"repeated"`
	Enabled    bool        `json:"enabled"`
	Editable   bool        `json:"editable"`
	Smart      bool        `json:"smart"`
	Sound      AlarmSound  `json:"sound"`
	Source     AlarmSource `json:"source"`
}

// ISOWeekday maps time.Weekday to 1..7 with Monday first.
func ISOWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func (a Alarm) ringsOn(d time.Weekday) bool {
	iso := ISOWeekday(d)
	for _, day := range a.DaysOfWeek {
		if day == iso {
			return true
		}
	}
	return false
}

// NextRing returns the next strictly-future ring time relative to now, in
// now's location. Disabled and expired alarms have none.
func (a Alarm) NextRing(now time.Time) (time.Time, bool) {
	if !a.Enabled {
		return time.Time{}, false
	}
	loc := now.Location()

	if !a.Repeated {
		ring := time.Date(a.Year, time.Month(a.Month), a.Day, a.Hour, a.Minute, 0, 0, loc)
		if ring.After(now) {
			return ring, true
		}
		return time.Time{}, false
	}

	if len(a.DaysOfWeek) == 0 {
		return time.Time{}, false
	}
	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		if !a.ringsOn(day.Weekday()) {
			continue
		}
		ring := time.Date(day.Year(), day.Month(), day.Day(), a.Hour, a.Minute, 0, 0, loc)
		if ring.After(now) {
			return ring, true
		}
	}
	return time.Time{}, false
}

// Expired reports a one-shot alarm whose ring time is not in the future.
func (a Alarm) Expired(now time.Time) bool {
	if a.Repeated {
		return false
	}
	ring := time.Date(a.Year, time.Month(a.Month), a.Day, a.Hour, a.Minute, 0, 0, now.Location())
	return !ring.After(now)
}

// Scheduled pairs an alarm with its next ring time.
type Scheduled struct {
	Index int
	Alarm Alarm
	Ring  time.Time
}

// Upcoming lists alarms that will ring in the future, earliest first. Ties
// keep collection order.
func Upcoming(alarms []Alarm, now time.Time) []Scheduled {
	out := make([]Scheduled, 0, len(alarms))
	for i, a := range alarms {
		if ring, ok := a.NextRing(now); ok {
			out = append(out, Scheduled{Index: i, Alarm: a, Ring: ring})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ring.Before(out[j].Ring)
	})
	return out
}
