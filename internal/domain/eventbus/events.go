package eventbus

import "time"

// Topics.
const (
	TopicDeviceAudio       = "device:audio"
	TopicDispatchCompleted = "dispatch:completed"
)

// DeviceMessageKind is the device-side action.
type DeviceMessageKind string

const (
	MessageStartAudio DeviceMessageKind = "start_audio"
	MessageStopAudio  DeviceMessageKind = "stop_audio"
)

// DeviceMessage is pushed to a connected device.
type DeviceMessage struct {
	ID            string            `json:"id"`
	DeviceID      string            `json:"device_id"`
	Kind          DeviceMessageKind `json:"kind"`
	SoundID       string            `json:"sound_id,omitempty"`
	SoundName     string            `json:"sound_name,omitempty"`
	SoundURL      string            `json:"sound_url,omitempty"`
	DurationSecs  int               `json:"duration_seconds,omitempty"`
	VolumePercent int               `json:"volume_percent,omitempty"`
	SentAt        time.Time         `json:"sent_at"`
}

// DispatchEvent summarizes one dispatch for subscribers.
type DispatchEvent struct {
	AccountID string        `json:"account_id"`
	DeviceID  string        `json:"device_id"`
	Handler   string        `json:"handler"`
	Command   string        `json:"command"`
	Success   bool          `json:"success"`
	Code      string        `json:"code"`
	Elapsed   time.Duration `json:"elapsed"`
}
