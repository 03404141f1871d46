package services

import (
	"fmt"
	"strings"
	"time"

	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

// TranscriptPayload is the wire form of an annotated transcript, shared by
// the HTTP, WebSocket and CLI entrypoints.
type TranscriptPayload struct {
	Text      string            `json:"text"`
	Timezone  string            `json:"timezone,omitempty"`
	Times     []TimePayload     `json:"times,omitempty"`
	Sounds    []SoundPayload    `json:"sounds,omitempty"`
	Durations []DurationPayload `json:"durations,omitempty"`
}

// TimePayload carries an optional calendar date as YYYY-MM-DD.
type TimePayload struct {
	Text   string `json:"text,omitempty"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Date   string `json:"date,omitempty"`
}

type SoundPayload struct {
	Text string `json:"text,omitempty"`
	Name string `json:"name"`
}

type DurationPayload struct {
	Text    string `json:"text,omitempty"`
	Seconds int    `json:"seconds"`
}

// Transcript validates the payload and builds the immutable transcript.
func (p TranscriptPayload) Transcript() (speech.Transcript, error) {
	if strings.TrimSpace(p.Text) == "" {
		return speech.Transcript{}, invalid("transcript text is empty")
	}

	var opts []speech.TranscriptOption
	if tz := strings.TrimSpace(p.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return speech.Transcript{}, errors.Wrap(errors.KindDomain, "transcript.timezone", fmt.Sprintf("unknown timezone %q", tz), err)
		}
		opts = append(opts, speech.WithTimezone(loc))
	}

	for _, tp := range p.Times {
		ann, err := tp.annotation()
		if err != nil {
			return speech.Transcript{}, err
		}
		opts = append(opts, speech.WithTimes(ann))
	}

	for _, sp := range p.Sounds {
		if strings.TrimSpace(sp.Name) == "" {
			return speech.Transcript{}, invalid("sound annotation without a name")
		}
		opts = append(opts, speech.WithSounds(speech.SoundAnnotation{Text: sp.Text, Name: sp.Name}))
	}

	for _, dp := range p.Durations {
		if dp.Seconds <= 0 {
			return speech.Transcript{}, invalid(fmt.Sprintf("duration must be positive, got %d seconds", dp.Seconds))
		}
		opts = append(opts, speech.WithDurations(speech.DurationAnnotation{
			Text:     dp.Text,
			Duration: time.Duration(dp.Seconds) * time.Second,
		}))
	}

	return speech.NewTranscript(p.Text, opts...), nil
}

func (tp TimePayload) annotation() (speech.TimeAnnotation, error) {
	if tp.Hour < 0 || tp.Hour > 23 || tp.Minute < 0 || tp.Minute > 59 {
		return speech.TimeAnnotation{}, invalid(fmt.Sprintf("invalid time %02d:%02d", tp.Hour, tp.Minute))
	}
	ann := speech.TimeAnnotation{Text: tp.Text, Hour: tp.Hour, Minute: tp.Minute}
	if tp.Date != "" {
		d, err := time.Parse(time.DateOnly, tp.Date)
		if err != nil {
			return speech.TimeAnnotation{}, errors.Wrap(errors.KindDomain, "transcript.date", fmt.Sprintf("invalid date %q", tp.Date), err)
		}
		ann.Date = optional.Some(speech.CivilDate{Year: d.Year(), Month: d.Month(), Day: d.Day()})
	}
	return ann, nil
}

func invalid(msg string) error {
	return errors.New(errors.KindDomain, "transcript.validate", msg)
}
