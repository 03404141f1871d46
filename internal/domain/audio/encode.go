package audio

import (
	"context"
	"encoding/binary"
	"fmt"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// Encoder wraps mono PCM into the requested output format.
type Encoder struct {
	Target          Format
	OpusFrameMillis int
}

func (e Encoder) Name() string { return "encode:" + string(e.Target) }

func (e Encoder) Accepts(c Clip) bool {
	return c.Format == FormatPCM && e.Target != "" && e.Target != FormatPCM
}

func (e Encoder) Process(_ context.Context, c Clip) (Clip, error) {
	switch e.Target {
	case FormatWAV:
		return Clip{Data: EncodeWAV(c), Format: FormatWAV, SampleRate: c.SampleRate, Channels: c.Channels}, nil
	case FormatOpus:
		data, err := encodeOpus(c, e.OpusFrameMillis)
		if err != nil {
			return Clip{}, platformerrors.Wrap(platformerrors.KindAudio, "audio.Encode", "encode opus", err)
		}
		return Clip{Data: data, Format: FormatOpus, SampleRate: c.SampleRate, Channels: c.Channels}, nil
	default:
		return Clip{}, platformerrors.New(platformerrors.KindAudio, "audio.Encode", fmt.Sprintf("cannot encode to %s", e.Target))
	}
}

// EncodeWAV prepends a canonical 44-byte header to 16-bit PCM.
func EncodeWAV(c Clip) []byte {
	channels := c.Channels
	if channels < 1 {
		channels = 1
	}
	size := len(c.Data)
	out := make([]byte, 44+size)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+size))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(c.SampleRate*channels*2))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(size))
	copy(out[44:], c.Data)
	return out
}

// SplitOpusFrames undoes the length-prefixed framing used on the wire.
func SplitOpusFrames(data []byte) ([][]byte, error) {
	var frames [][]byte
	for off := 0; off < len(data); {
		if off+2 > len(data) {
			return nil, fmt.Errorf("truncated frame header at %d", off)
		}
		n := int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		if off+n > len(data) {
			return nil, fmt.Errorf("truncated frame at %d", off)
		}
		frames = append(frames, data[off:off+n])
		off += n
	}
	return frames, nil
}
