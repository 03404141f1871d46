package audio

import (
	"context"
	"math"
)

// DefaultDeviceRate is the playback rate of current hardware.
const DefaultDeviceRate = 16000

// Resampler converts mono PCM to TargetRate by linear interpolation.
type Resampler struct {
	TargetRate int
}

func (r Resampler) target() int {
	if r.TargetRate <= 0 {
		return DefaultDeviceRate
	}
	return r.TargetRate
}

func (r Resampler) Name() string { return "resample" }

func (r Resampler) Accepts(c Clip) bool {
	return c.Format == FormatPCM && c.SampleRate > 0 && c.SampleRate != r.target()
}

func (r Resampler) Process(_ context.Context, c Clip) (Clip, error) {
	in := c.Samples()
	to := r.target()
	if len(in) == 0 {
		return Clip{Format: FormatPCM, SampleRate: to, Channels: c.Channels}, nil
	}
	n := int(math.Round(float64(len(in)) * float64(to) / float64(c.SampleRate)))
	if n < 1 {
		n = 1
	}
	step := float64(c.SampleRate) / float64(to)
	out := make([]int16, n)
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = clamp16(math.Round(float64(in[j])*(1-frac) + float64(in[j+1])*frac))
	}
	return PCMClip(out, to, c.Channels), nil
}
