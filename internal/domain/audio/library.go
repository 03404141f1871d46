package audio

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
)

// Canned clip names.
const (
	ClipOK           = "ok"
	ClipTryAgain     = "try_again"
	ClipUnrecognized = "unrecognized"
)

// sourceExtensions are tried in order when loading a canned clip.
var sourceExtensions = []struct {
	ext    string
	format Format
}{
	{".wav", FormatWAV},
	{".mp3", FormatMP3},
	{".pcm", FormatPCM},
}

// LibraryConfig locates canned clips and describes the device.
type LibraryConfig struct {
	Dir             string
	SampleRate      int
	OpusFrameMillis int
}

// ClipLibrary renders canned clips per output format and equalizer and keeps
// the results. Raw .pcm sources are assumed to be mono at the device rate.
type ClipLibrary struct {
	cfg    LibraryConfig
	logger *logging.Logger

	mu       sync.Mutex
	rendered map[string][]byte
}

func NewClipLibrary(cfg LibraryConfig, logger *logging.Logger) *ClipLibrary {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultDeviceRate
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ClipLibrary{cfg: cfg, logger: logger, rendered: make(map[string][]byte)}
}

// Render returns the named clip in the requested format. A clip missing on
// disk is replaced with the chime, so Render only fails for bad options.
func (l *ClipLibrary) Render(ctx context.Context, name string, format Format, eq string) ([]byte, error) {
	profile, err := LookupEqualizer(eq)
	if err != nil {
		return nil, err
	}
	eq = profile.Name
	key := name + "|" + string(format) + "|" + eq
	l.mu.Lock()
	if data, ok := l.rendered[key]; ok {
		l.mu.Unlock()
		return data, nil
	}
	l.mu.Unlock()

	chain, err := NewRenderChain(RenderOptions{Format: format, Equalizer: eq, SampleRate: l.cfg.SampleRate, OpusFrameMillis: l.cfg.OpusFrameMillis})
	if err != nil {
		return nil, err
	}

	src, err := l.load(name)
	if err != nil {
		l.logger.WarnTag("Audio", "clip %s unavailable, using chime: %v", name, err)
		src = Chime(l.cfg.SampleRate)
	}
	out, _, err := chain.Run(ctx, src)
	if err != nil && src.Format != FormatPCM {
		l.logger.WarnTag("Audio", "clip %s failed to render, using chime: %v", name, err)
		out, _, err = chain.Run(ctx, Chime(l.cfg.SampleRate))
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.rendered[key] = out.Data
	l.mu.Unlock()
	return out.Data, nil
}

func (l *ClipLibrary) load(name string) (Clip, error) {
	if l.cfg.Dir == "" {
		return Clip{}, platformerrors.New(platformerrors.KindAudio, "audio.ClipLibrary", "no clips directory configured")
	}
	for _, src := range sourceExtensions {
		data, err := os.ReadFile(filepath.Join(l.cfg.Dir, name+src.ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Clip{}, platformerrors.Wrap(platformerrors.KindAudio, "audio.ClipLibrary", "read clip", err)
		}
		clip := Clip{Data: data, Format: src.format}
		if src.format == FormatPCM {
			clip.SampleRate, clip.Channels = l.cfg.SampleRate, 1
		}
		return clip, nil
	}
	return Clip{}, platformerrors.New(platformerrors.KindAudio, "audio.ClipLibrary", "clip "+name+" not found")
}

// Chime synthesizes a short descending two-tone PCM clip.
func Chime(rate int) Clip {
	if rate <= 0 {
		rate = DefaultDeviceRate
	}
	const (
		toneMillis = 150
		amplitude  = 8000.0
		fadeMillis = 10
	)
	per := rate * toneMillis / 1000
	fade := rate * fadeMillis / 1000
	samples := make([]int16, 0, 2*per)
	for _, freq := range []float64{880, 660} {
		for i := 0; i < per; i++ {
			gain := 1.0
			if i < fade {
				gain = float64(i) / float64(fade)
			} else if per-i < fade {
				gain = float64(per-i) / float64(fade)
			}
			v := amplitude * gain * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
			samples = append(samples, clamp16(v))
		}
	}
	return PCMClip(samples, rate, 1)
}
