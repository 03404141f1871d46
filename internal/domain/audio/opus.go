package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/hraban/opus"
)

// DefaultOpusFrameMillis matches what devices buffer per packet.
const DefaultOpusFrameMillis = 60

const maxOpusPacket = 4000

func opusFrameMillis(ms int) int {
	switch ms {
	case 10, 20, 40, 60:
		return ms
	default:
		return DefaultOpusFrameMillis
	}
}

// encodeOpus encodes mono PCM into length-prefixed opus packets. The last
// frame is zero padded.
func encodeOpus(c Clip, frameMillis int) ([]byte, error) {
	if c.Channels > 1 {
		return nil, fmt.Errorf("opus encoder expects mono input, got %d channels", c.Channels)
	}
	enc, err := opus.NewEncoder(c.SampleRate, 1, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	samples := c.Samples()
	frameSize := c.SampleRate * opusFrameMillis(frameMillis) / 1000
	packet := make([]byte, maxOpusPacket)
	frame := make([]int16, frameSize)
	var out []byte
	for off := 0; off < len(samples); off += frameSize {
		n := copy(frame, samples[off:])
		for i := n; i < frameSize; i++ {
			frame[i] = 0
		}
		size, err := enc.Encode(frame, packet)
		if err != nil {
			return nil, err
		}
		var hdr [2]byte
		binary.BigEndian.PutUint16(hdr[:], uint16(size))
		out = append(out, hdr[:]...)
		out = append(out, packet[:size]...)
	}
	return out, nil
}
