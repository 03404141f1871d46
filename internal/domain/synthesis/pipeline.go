// Package synthesis turns a dispatch result into device audio: nothing for
// silent delivery, a canned clip for static delivery, and cached or freshly
// synthesized speech for dynamic delivery.
package synthesis

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"sleepvoice-server-go/internal/domain/audio"
	"sleepvoice-server-go/internal/domain/responsecache"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/tts"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
)

// ClipRenderer renders canned clips.
type ClipRenderer interface {
	Render(ctx context.Context, name string, format audio.Format, eq string) ([]byte, error)
}

// Output is the audio for one result. Audio is nil for silent delivery.
type Output struct {
	Audio    []byte
	Format   audio.Format
	Mode     speech.DeliveryMode
	Voice    string
	CacheHit bool
	// Fallback is set when dynamic synthesis failed and the try-again clip
	// was substituted.
	Fallback bool
}

// Config carries device parameters and the cache call bound.
type Config struct {
	SampleRate      int
	OpusFrameMillis int
	CacheTimeout    time.Duration
}

type Pipeline struct {
	backend tts.Backend
	voices  *tts.VoiceSelector
	cache   responsecache.Cache
	clips   ClipRenderer
	cfg     Config
	logger  *logging.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

type Option func(*Pipeline)

func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func NewPipeline(backend tts.Backend, voices *tts.VoiceSelector, cache responsecache.Cache, clips ClipRenderer, cfg Config, opts ...Option) *Pipeline {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultDeviceRate
	}
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = time.Second
	}
	if voices == nil {
		voices = tts.NewVoiceSelector(tts.VoiceModeFixed, nil, 0)
	}
	p := &Pipeline{
		backend: backend,
		voices:  voices,
		cache:   cache,
		clips:   clips,
		cfg:     cfg,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Synthesize renders res according to d. The only errors are invalid
// format or equalizer options; every other failure degrades to the
// try-again clip.
func (p *Pipeline) Synthesize(ctx context.Context, res speech.Result, d speech.Delivery, format audio.Format, eq string) (Output, error) {
	profile, err := audio.LookupEqualizer(eq)
	if err != nil {
		return Output{}, err
	}
	// one cache entry per profile, whatever the caller's spelling
	eq = profile.Name

	chain, err := audio.NewRenderChain(audio.RenderOptions{
		Format:          format,
		Equalizer:       eq,
		SampleRate:      p.cfg.SampleRate,
		OpusFrameMillis: p.cfg.OpusFrameMillis,
	})
	if err != nil {
		return Output{}, err
	}

	switch d.Mode {
	case speech.DeliverySilent:
		return Output{Mode: speech.DeliverySilent, Format: format}, nil
	case speech.DeliveryStatic:
		clip := d.Clip
		if clip == "" {
			clip = speech.ClipOK
		}
		data, err := p.clips.Render(ctx, string(clip), format, eq)
		if err != nil {
			return Output{}, err
		}
		return Output{Audio: data, Format: format, Mode: speech.DeliveryStatic}, nil
	default:
		return p.dynamic(ctx, res.Outcome.ResponseText, chain, format, eq)
	}
}

func (p *Pipeline) dynamic(ctx context.Context, text string, chain *audio.Chain, format audio.Format, eq string) (Output, error) {
	if text == "" {
		return p.fallback(ctx, format, eq, "")
	}
	voice := p.voices.Pick()
	key := responsecache.Key(voice, string(format), eq, text)

	cacheCtx, cancel := context.WithTimeout(ctx, p.cfg.CacheTimeout)
	cached, err := p.cache.Get(cacheCtx, key)
	cancel()
	switch {
	case err != nil:
		p.metrics.ObserveCache("error")
		p.logger.WarnTag("Cache", "lookup %s failed, treating as miss: %v", key[:12], err)
	case cached.IsPresent():
		p.metrics.ObserveCache("hit")
		data, _ := cached.Get()
		return Output{Audio: data, Format: format, Mode: speech.DeliveryDynamic, Voice: voice, CacheHit: true}, nil
	default:
		p.metrics.ObserveCache("miss")
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.render(ctx, key, text, voice, chain)
	})
	if err != nil {
		p.logger.ErrorTag("TTS", "synthesis via %s failed, playing fallback: %v", p.backend.Name(), err)
		return p.fallback(ctx, format, eq, voice)
	}
	return Output{Audio: v.([]byte), Format: format, Mode: speech.DeliveryDynamic, Voice: voice}, nil
}

func (p *Pipeline) render(ctx context.Context, key, text, voice string, chain *audio.Chain) (data []byte, err error) {
	ctx, end := observability.StartSpan(ctx, "synthesis", "render")
	defer func() { end(err) }()

	start := time.Now()
	clip, err := p.backend.Synthesize(ctx, text, voice)
	if err != nil {
		p.metrics.ObserveTTS(p.backend.Name(), "error")
		return nil, err
	}
	p.metrics.ObserveTTS(p.backend.Name(), "ok")

	out, stages, err := chain.Run(ctx, clip)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	p.metrics.ObserveSynthesis(elapsed)
	p.logger.DebugTag("Audio", "rendered %d bytes via %v in %s", len(out.Data), stages, elapsed)

	// the response does not depend on the cache write
	cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.CacheTimeout)
	defer cancel()
	if err := p.cache.Set(cacheCtx, key, out.Data); err != nil {
		p.logger.WarnTag("Cache", "store %s failed: %v", key[:12], err)
	}
	return out.Data, nil
}

func (p *Pipeline) fallback(ctx context.Context, format audio.Format, eq, voice string) (Output, error) {
	data, err := p.clips.Render(ctx, string(speech.ClipTryAgain), format, eq)
	if err != nil {
		return Output{}, err
	}
	return Output{Audio: data, Format: format, Mode: speech.DeliveryDynamic, Voice: voice, Fallback: true}, nil
}
