package model

import (
	"time"

	"sleepvoice-server-go/internal/util/optional"
)

// Sound is a sleep-sound catalog entry available on a device.
type Sound struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SoundSetting is the device's remembered sleep-sound playback state.
type SoundSetting struct {
	LastSoundID     string `json:"last_sound_id"`
	VolumePercent   int    `json:"volume_percent"`
	DurationMinutes int    `json:"duration_minutes"`
}

// SensorSnapshot is one room reading. Individual readings may be missing
// when a sensor did not report.
type SensorSnapshot struct {
	DeviceID     string                  `json:"device_id"`
	RecordedAt   time.Time               `json:"recorded_at"`
	TemperatureC optional.Value[float64] `json:"temperature_c"`
	Humidity     optional.Value[float64] `json:"humidity"`
	LightLux     optional.Value[float64] `json:"light_lux"`
	SoundDB      optional.Value[float64] `json:"sound_db"`
	Particulates optional.Value[float64] `json:"particulates"`
}

// SleepStats summarizes one night. Night is the local calendar date the
// night started on, formatted 2006-01-02.
type SleepStats struct {
	Night            string `json:"night"`
	Score            int    `json:"score"`
	DurationMinutes  int    `json:"duration_minutes"`
	TimesAwake       int    `json:"times_awake"`
	SoundSleepMinute int    `json:"sound_sleep_minutes"`
}

// TemperatureUnit is the account's display preference.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "c"
	Fahrenheit TemperatureUnit = "f"
)

// Preferences are per-account settings consulted by handlers.
type Preferences struct {
	Timezone        string          `json:"timezone"`
	TemperatureUnit TemperatureUnit `json:"temperature_unit"`
}

// Location resolves the preference timezone.
func (p Preferences) Location() optional.Value[*time.Location] {
	if p.Timezone == "" {
		return optional.None[*time.Location]()
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return optional.None[*time.Location]()
	}
	return optional.Some(loc)
}

// DeviceKey addresses per-device state for an account.
type DeviceKey struct {
	AccountID string
	DeviceID  string
}
