// Package tts wraps the text-to-speech providers behind one Backend
// interface, with voice selection and a circuit breaker.
package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sleepvoice-server-go/internal/domain/audio"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
)

// Backend synthesizes speech. The returned clip is in the backend's native
// format and rate; the caller transforms it for the device.
type Backend interface {
	Name() string
	Synthesize(ctx context.Context, text, voice string) (audio.Clip, error)
}

const (
	BackendEdge   = "edge"
	BackendOpenAI = "openai"
)

// Config selects and tunes the backend.
type Config struct {
	Backend   string
	Timeout   time.Duration
	VoiceMode string
	Voices    []string

	EdgeDefaultVoice string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	OpenAISpeed        float64
	OpenAIDefaultVoice string

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// NewBackend builds the configured backend wrapped in a timeout and a
// circuit breaker.
func NewBackend(cfg Config, logger *logging.Logger) (Backend, error) {
	var inner Backend
	switch strings.ToLower(cfg.Backend) {
	case "", BackendEdge:
		inner = NewEdgeBackend(cfg.EdgeDefaultVoice)
	case BackendOpenAI:
		b, err := NewOpenAIBackend(OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			Speed:        cfg.OpenAISpeed,
			DefaultVoice: cfg.OpenAIDefaultVoice,
		})
		if err != nil {
			return nil, err
		}
		inner = b
	default:
		return nil, platformerrors.New(platformerrors.KindConfig, "tts.NewBackend", fmt.Sprintf("unsupported tts backend %q", cfg.Backend))
	}
	return NewBreaker(WithTimeout(inner, cfg.Timeout), BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, logger), nil
}

type timeoutBackend struct {
	Backend
	timeout time.Duration
}

// WithTimeout bounds every Synthesize call. Zero or negative leaves b as is.
func WithTimeout(b Backend, timeout time.Duration) Backend {
	if timeout <= 0 {
		return b
	}
	return &timeoutBackend{Backend: b, timeout: timeout}
}

func (t *timeoutBackend) Synthesize(ctx context.Context, text, voice string) (audio.Clip, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		clip audio.Clip
		err  error
	}
	// some providers ignore ctx, so the deadline is enforced here too
	done := make(chan result, 1)
	go func() {
		clip, err := t.Backend.Synthesize(ctx, text, voice)
		done <- result{clip, err}
	}()
	select {
	case r := <-done:
		return r.clip, r.err
	case <-ctx.Done():
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts."+t.Name(), "synthesis timed out", ctx.Err())
	}
}
