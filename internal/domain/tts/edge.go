package tts

import (
	"context"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"sleepvoice-server-go/internal/domain/audio"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// EdgeBackend uses the Microsoft Edge read-aloud service. It returns MP3.
type EdgeBackend struct {
	defaultVoice string
}

func NewEdgeBackend(defaultVoice string) *EdgeBackend {
	if defaultVoice == "" {
		defaultVoice = "en-US-AriaNeural"
	}
	return &EdgeBackend{defaultVoice: defaultVoice}
}

func (e *EdgeBackend) Name() string { return BackendEdge }

func (e *EdgeBackend) Synthesize(ctx context.Context, text, voice string) (audio.Clip, error) {
	if err := ctx.Err(); err != nil {
		return audio.Clip{}, err
	}
	if voice == "" {
		voice = e.defaultVoice
	}
	communicate, err := edge_tts.New(voice)
	if err != nil {
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts.edge", "create communicator", err)
	}
	defer communicate.Close()

	data, err := communicate.Output(text)
	if err != nil {
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts.edge", "synthesize", err)
	}
	if len(data) == 0 {
		return audio.Clip{}, platformerrors.New(platformerrors.KindUpstream, "tts.edge", "empty audio")
	}
	return audio.Clip{Data: data, Format: audio.FormatMP3}, nil
}
