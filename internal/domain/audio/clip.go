// Package audio holds the byte-level transforms applied to synthesized
// speech before it is sent to a device: decoding, equalization, resampling
// and encoding, plus the library of canned clips.
package audio

import (
	"encoding/binary"
	"fmt"
	"strings"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// Format is an audio container or raw layout.
type Format string

const (
	FormatPCM  Format = "pcm" // signed 16-bit little-endian
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus" // frames prefixed with a 2-byte big-endian length
)

// OutputFormats are the formats a device may request.
var OutputFormats = []Format{FormatPCM, FormatWAV, FormatOpus}

// ParseOutputFormat validates a requested output format. Empty means fallback.
func ParseOutputFormat(s string, fallback Format) (Format, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, ok := range OutputFormats {
		if f == ok {
			return f, nil
		}
	}
	return "", platformerrors.New(platformerrors.KindAudio, "audio.ParseOutputFormat", fmt.Sprintf("unsupported output format %q", s))
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatOpus:
		return "audio/opus"
	default:
		return "audio/L16"
	}
}

// Clip is a chunk of audio plus the metadata needed to interpret it.
// SampleRate and Channels are meaningful for PCM; encoded formats carry
// them for reference.
type Clip struct {
	Data       []byte
	Format     Format
	SampleRate int
	Channels   int
}

// Samples decodes PCM data into int16 samples.
func (c Clip) Samples() []int16 {
	out := make([]int16, len(c.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(c.Data[2*i:]))
	}
	return out
}

// PCMClip packs samples into a PCM clip.
func PCMClip(samples []int16, sampleRate, channels int) Clip {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return Clip{Data: data, Format: FormatPCM, SampleRate: sampleRate, Channels: channels}
}

func clamp16(v float64) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
