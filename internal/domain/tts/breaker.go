package tts

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"sleepvoice-server-go/internal/domain/audio"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
)

// ErrBackendUnavailable is returned while the breaker is open.
var ErrBackendUnavailable = errors.New("tts backend unavailable")

// BreakerConfig trips after MaxFailures consecutive failures and lets a
// trial call through again after OpenTimeout.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Breaker stops calling a failing backend for a while.
type Breaker struct {
	inner Backend
	cb    *gobreaker.CircuitBreaker
}

func NewBreaker(inner Backend, cfg BreakerConfig, logger *logging.Logger) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	maxFailures := cfg.MaxFailures
	return &Breaker{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "tts-" + inner.Name(),
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WarnTag("TTS", "circuit %s: %s -> %s", name, from, to)
			},
		}),
	}
}

func (b *Breaker) Name() string { return b.inner.Name() }

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Synthesize(ctx context.Context, text, voice string) (audio.Clip, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Synthesize(ctx, text, voice)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return audio.Clip{}, platformerrors.Wrap(platformerrors.KindUpstream, "tts.Breaker", b.cb.Name(), ErrBackendUnavailable)
	}
	if err != nil {
		return audio.Clip{}, err
	}
	return out.(audio.Clip), nil
}
