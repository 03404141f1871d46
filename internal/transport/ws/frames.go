package ws

import (
	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/eventbus"
)

// Frame types.
const (
	FrameVoice  = "voice"
	FramePing   = "ping"
	FramePong   = "pong"
	FrameResult = "result"
	FrameError  = "error"
	FrameDevice = "device"
	FrameHello  = "hello"
)

// ClientFrame is a text frame sent by a device. A voice frame embeds the
// request fields directly.
type ClientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	services.Speech
}

// ServerFrame is a text frame sent to a device. A result frame with a
// non-zero audio_bytes is followed by one binary frame holding the audio.
type ServerFrame struct {
	Type    string                  `json:"type"`
	ID      string                  `json:"id,omitempty"`
	Session string                  `json:"session,omitempty"`
	Result  *services.ResultView    `json:"result,omitempty"`
	Message *eventbus.DeviceMessage `json:"message,omitempty"`
	Error   string                  `json:"error,omitempty"`
}
