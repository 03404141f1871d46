package tts

import (
	"context"
	"io"

	"github.com/sashabaranov/go-openai"

	"sleepvoice-server-go/internal/domain/audio"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// openAIPCMRate is the fixed rate of the speech endpoint's pcm output.
const openAIPCMRate = 24000

var openAIVoices = map[string]openai.SpeechVoice{
	"alloy":   openai.VoiceAlloy,
	"ash":     openai.VoiceAsh,
	"coral":   openai.VoiceCoral,
	"echo":    openai.VoiceEcho,
	"fable":   openai.VoiceFable,
	"onyx":    openai.VoiceOnyx,
	"nova":    openai.VoiceNova,
	"shimmer": openai.VoiceShimmer,
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Speed        float64
	DefaultVoice string
}

// OpenAIBackend calls the audio/speech endpoint and asks for raw PCM.
type OpenAIBackend struct {
	client       *openai.Client
	model        openai.SpeechModel
	speed        float64
	defaultVoice openai.SpeechVoice
}

func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "tts.NewOpenAIBackend", "api key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := openai.SpeechModel(cfg.Model)
	if model == "" {
		model = openai.TTSModel1
	}
	voice, ok := openAIVoices[cfg.DefaultVoice]
	if !ok {
		voice = openai.VoiceAlloy
	}
	return &OpenAIBackend{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		speed:        cfg.Speed,
		defaultVoice: voice,
	}, nil
}

func (o *OpenAIBackend) Name() string { return BackendOpenAI }

func (o *OpenAIBackend) Synthesize(ctx context.Context, text, voice string) (audio.Clip, error) {
	v, ok := openAIVoices[voice]
	if !ok {
		v = o.defaultVoice
	}
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          v,
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          o.speed,
	})
	if err != nil {
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts.openai", "create speech", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts.openai", "read speech", err)
	}
	if len(data) == 0 || len(data)%2 != 0 {
		return audio.Clip{}, platformerrors.New(platformerrors.KindUpstream, "tts.openai", "malformed pcm response")
	}
	return audio.Clip{Data: data, Format: audio.FormatPCM, SampleRate: openAIPCMRate, Channels: 1}, nil
}
