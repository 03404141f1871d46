package audio

import (
	"context"
	"strings"
)

// Stage is one pure transform. Accepts reports whether the stage applies to
// a clip; a chain skips stages that do not.
type Stage interface {
	Name() string
	Accepts(c Clip) bool
	Process(ctx context.Context, c Clip) (Clip, error)
}

// Chain runs stages in order.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run applies every accepting stage and returns the final clip along with
// the names of the stages that ran.
func (ch *Chain) Run(ctx context.Context, c Clip) (Clip, []string, error) {
	var ran []string
	for _, s := range ch.stages {
		if err := ctx.Err(); err != nil {
			return Clip{}, ran, err
		}
		if !s.Accepts(c) {
			continue
		}
		out, err := s.Process(ctx, c)
		if err != nil {
			return Clip{}, ran, err
		}
		ran = append(ran, s.Name())
		c = out
	}
	return c, ran, nil
}

func (ch *Chain) String() string {
	names := make([]string, 0, len(ch.stages))
	for _, s := range ch.stages {
		names = append(names, s.Name())
	}
	return strings.Join(names, " -> ")
}

// RenderOptions describe the device's playback requirements.
type RenderOptions struct {
	Format          Format
	Equalizer       string
	SampleRate      int
	OpusFrameMillis int
}

// NewRenderChain builds decode, equalize, resample and encode for opts.
func NewRenderChain(opts RenderOptions) (*Chain, error) {
	eq, err := LookupEqualizer(opts.Equalizer)
	if err != nil {
		return nil, err
	}
	return NewChain(
		Decoder{},
		NewEqualizer(eq),
		Resampler{TargetRate: opts.SampleRate},
		Encoder{Target: opts.Format, OpusFrameMillis: opts.OpusFrameMillis},
	), nil
}
