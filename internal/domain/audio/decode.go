package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// Decoder turns backend output into mono PCM. go-mp3 always yields 16-bit
// stereo, so MP3 input is downmixed as well.
type Decoder struct{}

func (Decoder) Name() string { return "decode" }

func (Decoder) Accepts(c Clip) bool {
	switch c.Format {
	case FormatMP3, FormatWAV:
		return true
	case FormatPCM:
		return c.Channels > 1
	default:
		return false
	}
}

func (Decoder) Process(_ context.Context, c Clip) (Clip, error) {
	var (
		pcm Clip
		err error
	)
	switch c.Format {
	case FormatMP3:
		pcm, err = decodeMP3(c.Data)
	case FormatWAV:
		pcm, err = decodeWAV(c.Data)
	case FormatPCM:
		pcm = c
	default:
		err = fmt.Errorf("cannot decode %s", c.Format)
	}
	if err != nil {
		return Clip{}, platformerrors.Wrap(platformerrors.KindAudio, "audio.Decode", "decode "+string(c.Format), err)
	}
	return downmix(pcm), nil
}

func decodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Data: raw, Format: FormatPCM, SampleRate: dec.SampleRate(), Channels: 2}, nil
}

// decodeWAV extracts 16-bit PCM from a RIFF/WAVE container, skipping any
// chunks other than fmt and data.
func decodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("not a RIFF/WAVE file")
	}
	var (
		channels, bits int
		rate           int
		haveFmt        bool
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4:]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("short fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(data[body:]); tag != 1 {
				return Clip{}, fmt.Errorf("unsupported wav encoding %d", tag)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			rate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("data chunk before fmt chunk")
			}
			if bits != 16 {
				return Clip{}, fmt.Errorf("unsupported bit depth %d", bits)
			}
			pcm := make([]byte, size-size%2)
			copy(pcm, data[body:])
			return Clip{Data: pcm, Format: FormatPCM, SampleRate: rate, Channels: channels}, nil
		}
		// chunks are word aligned
		off = body + size + size%2
	}
	return Clip{}, fmt.Errorf("no data chunk")
}

func downmix(c Clip) Clip {
	if c.Channels <= 1 {
		c.Channels = 1
		return c
	}
	in := c.Samples()
	out := make([]int16, len(in)/c.Channels)
	for i := range out {
		var sum int
		for ch := 0; ch < c.Channels; ch++ {
			sum += int(in[i*c.Channels+ch])
		}
		out[i] = int16(sum / c.Channels)
	}
	return PCMClip(out, c.SampleRate, 1)
}
