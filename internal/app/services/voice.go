// Package services wires dispatch and synthesis into the single operation
// every transport calls.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sleepvoice-server-go/internal/domain/audio"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/synthesis"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
)

// Dispatcher resolves and executes a transcript.
type Dispatcher interface {
	Dispatch(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) (speech.Result, speech.Delivery)
}

// Synthesizer voices a dispatch result.
type Synthesizer interface {
	Synthesize(ctx context.Context, res speech.Result, d speech.Delivery, format audio.Format, eq string) (synthesis.Output, error)
}

// OutputOptions are the caller's audio preferences. Empty fields fall back
// to the service defaults.
type OutputOptions struct {
	Format    string `json:"format"`
	Equalizer string `json:"equalizer"`
}

// Response is one handled voice request.
type Response struct {
	Result   speech.Result
	Delivery speech.Delivery
	Output   synthesis.Output
	Elapsed  time.Duration
}

// Catalog lists the output options a caller may ask for.
type Catalog struct {
	Defaults   OutputOptions `json:"defaults"`
	Formats    []string      `json:"formats"`
	Equalizers []string      `json:"equalizers"`
	Voices     []string      `json:"voices"`
}

// VoiceService handles one voice request: dispatch, then synthesize.
type VoiceService struct {
	dispatcher  Dispatcher
	synthesizer Synthesizer
	defaults    OutputOptions
	voices      []string
	logger      *logging.Logger
}

// ServiceOption customises a VoiceService.
type ServiceOption func(*VoiceService)

// WithVoices advertises the synthesis voices in the catalog.
func WithVoices(voices []string) ServiceOption {
	return func(s *VoiceService) { s.voices = append([]string(nil), voices...) }
}

func NewVoiceService(d Dispatcher, s Synthesizer, defaults OutputOptions, logger *logging.Logger, opts ...ServiceOption) *VoiceService {
	if defaults.Format == "" {
		defaults.Format = string(audio.FormatPCM)
	}
	if defaults.Equalizer == "" {
		defaults.Equalizer = "none"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &VoiceService{dispatcher: d, synthesizer: s, defaults: defaults, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Defaults returns the configured output options.
func (s *VoiceService) Defaults() OutputOptions {
	return s.defaults
}

// Catalog reports the defaults and every accepted format, equalizer and voice.
func (s *VoiceService) Catalog() Catalog {
	formats := make([]string, 0, len(audio.OutputFormats))
	for _, f := range audio.OutputFormats {
		formats = append(formats, string(f))
	}
	voices := s.voices
	if voices == nil {
		voices = []string{}
	}
	return Catalog{
		Defaults:   s.Defaults(),
		Formats:    formats,
		Equalizers: audio.EqualizerNames(),
		Voices:     voices,
	}
}

// Options resolves caller options against the defaults. The equalizer comes
// back in its canonical spelling. Errors are KindDomain and mean the request
// itself is malformed.
func (s *VoiceService) Options(opts OutputOptions) (audio.Format, string, error) {
	fallback, err := audio.ParseOutputFormat(s.defaults.Format, audio.FormatPCM)
	if err != nil {
		fallback = audio.FormatPCM
	}
	format, err := audio.ParseOutputFormat(opts.Format, fallback)
	if err != nil {
		return "", "", badOptions(fmt.Sprintf("unsupported output format, want one of: %s", strings.Join(s.Catalog().Formats, ", ")), err)
	}

	eq := strings.TrimSpace(opts.Equalizer)
	if eq == "" {
		eq = s.defaults.Equalizer
	}
	profile, err := audio.LookupEqualizer(eq)
	if err != nil {
		return "", "", badOptions(fmt.Sprintf("unknown equalizer, want one of: %s", strings.Join(audio.EqualizerNames(), ", ")), err)
	}
	return format, profile.Name, nil
}

// Handle dispatches the transcript and voices the result. The only errors
// are malformed output options; handler and synthesis failures are carried
// inside the response as spoken failures and fallback audio.
func (s *VoiceService) Handle(ctx context.Context, req speech.VoiceRequest, t speech.Transcript, opts OutputOptions) (Response, error) {
	format, eq, err := s.Options(opts)
	if err != nil {
		return Response{}, err
	}

	start := time.Now()
	if req.Transcript == "" {
		req.Transcript = t.Raw()
	}

	result, delivery := s.dispatcher.Dispatch(ctx, t, req)
	dispatched := time.Since(start)

	out, err := s.synthesizer.Synthesize(ctx, result, delivery, format, eq)
	if err != nil {
		return Response{}, errors.Wrap(errors.KindAudio, "voice.synthesize", "synthesis failed", err)
	}

	elapsed := time.Since(start)
	s.logger.InfoTiming("voice %s: %s/%s dispatch=%s total=%s mode=%s bytes=%d cache_hit=%t",
		req.DeviceID, result.Handler, result.Command, dispatched, elapsed, out.Mode, len(out.Audio), out.CacheHit)

	return Response{Result: result, Delivery: delivery, Output: out, Elapsed: elapsed}, nil
}

// badOptions reclassifies audio validation errors as caller mistakes.
func badOptions(msg string, cause error) error {
	return &errors.Error{Kind: errors.KindDomain, Op: "voice.options", Message: msg, Cause: cause}
}
