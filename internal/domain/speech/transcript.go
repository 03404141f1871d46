package speech

import (
	"strings"
	"time"

	"sleepvoice-server-go/internal/util/optional"
)

// CivilDate is a calendar date without a location.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeAnnotation is a time-of-day extracted from the utterance, optionally
// with an explicit date ("tomorrow at 7").
type TimeAnnotation struct {
	Text   string
	Hour   int
	Minute int
	Date   optional.Value[CivilDate]
}

// SoundAnnotation names a sleep sound mentioned in the utterance.
type SoundAnnotation struct {
	Text string
	Name string
}

// DurationAnnotation is a span such as "for 20 minutes".
type DurationAnnotation struct {
	Text     string
	Duration time.Duration
}

// Transcript is the annotated utterance. It is built once per request and
// never mutated; accessors return copies.
type Transcript struct {
	raw       string
	lower     string
	timezone  optional.Value[*time.Location]
	times     []TimeAnnotation
	sounds    []SoundAnnotation
	durations []DurationAnnotation
}

// TranscriptOption attaches annotations at construction.
type TranscriptOption func(*Transcript)

func WithTimezone(loc *time.Location) TranscriptOption {
	return func(t *Transcript) {
		if loc != nil {
			t.timezone = optional.Some(loc)
		}
	}
}

func WithTimes(times ...TimeAnnotation) TranscriptOption {
	return func(t *Transcript) { t.times = append(t.times, times...) }
}

func WithSounds(sounds ...SoundAnnotation) TranscriptOption {
	return func(t *Transcript) { t.sounds = append(t.sounds, sounds...) }
}

func WithDurations(durations ...DurationAnnotation) TranscriptOption {
	return func(t *Transcript) { t.durations = append(t.durations, durations...) }
}

// NewTranscript trims and lower-cases raw once.
func NewTranscript(raw string, opts ...TranscriptOption) Transcript {
	raw = strings.TrimSpace(raw)
	t := Transcript{
		raw:   raw,
		lower: strings.ToLower(raw),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t Transcript) Raw() string   { return t.raw }
func (t Transcript) Lower() string { return t.lower }

func (t Transcript) Timezone() optional.Value[*time.Location] { return t.timezone }

func (t Transcript) Times() []TimeAnnotation {
	return append([]TimeAnnotation(nil), t.times...)
}

func (t Transcript) Sounds() []SoundAnnotation {
	return append([]SoundAnnotation(nil), t.sounds...)
}

func (t Transcript) Durations() []DurationAnnotation {
	return append([]DurationAnnotation(nil), t.durations...)
}

func (t Transcript) FirstTime() optional.Value[TimeAnnotation] {
	return first(t.times)
}

func (t Transcript) FirstSound() optional.Value[SoundAnnotation] {
	return first(t.sounds)
}

func (t Transcript) FirstDuration() optional.Value[DurationAnnotation] {
	return first(t.durations)
}

func first[T any](items []T) optional.Value[T] {
	if len(items) == 0 {
		return optional.None[T]()
	}
	return optional.Some(items[0])
}

// VoiceRequest identifies who is speaking. Immutable per request.
type VoiceRequest struct {
	AccountID  string
	DeviceID   string
	IP         string
	Transcript string
}
