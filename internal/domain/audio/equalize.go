package audio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

// EqualizerNone disables equalization.
const EqualizerNone = "none"

// BandKind selects a biquad shape.
type BandKind int

const (
	Peaking BandKind = iota
	HighShelf
)

// Band is one filter in an equalizer curve.
type Band struct {
	Kind   BandKind
	FreqHz float64
	GainDB float64
	Q      float64
}

// EqualizerProfile is a named compensation curve.
type EqualizerProfile struct {
	Name  string
	Bands []Band
}

// Profiles known to the server. "compensated" flattens the small speaker on
// the first hardware revision, which is boomy around 300 Hz and rolls off
// above 4 kHz.
var equalizers = map[string]EqualizerProfile{
	EqualizerNone: {Name: EqualizerNone},
	"compensated": {
		Name: "compensated",
		Bands: []Band{
			{Kind: Peaking, FreqHz: 300, GainDB: -4, Q: 1.0},
			{Kind: Peaking, FreqHz: 2500, GainDB: 2, Q: 1.2},
			{Kind: HighShelf, FreqHz: 4000, GainDB: 5, Q: 0.707},
		},
	},
}

// LookupEqualizer resolves a profile name. Empty means none.
func LookupEqualizer(name string) (EqualizerProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = EqualizerNone
	}
	p, ok := equalizers[key]
	if !ok {
		return EqualizerProfile{}, platformerrors.New(platformerrors.KindAudio, "audio.LookupEqualizer", fmt.Sprintf("unknown equalizer %q", name))
	}
	return p, nil
}

// EqualizerNames lists the known profiles in sorted order.
func EqualizerNames() []string {
	names := make([]string, 0, len(equalizers))
	for n := range equalizers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equalizer applies a profile's biquads in series to mono PCM.
type Equalizer struct {
	profile EqualizerProfile
}

func NewEqualizer(p EqualizerProfile) Equalizer {
	return Equalizer{profile: p}
}

func (e Equalizer) Name() string { return "equalize:" + e.profile.Name }

func (e Equalizer) Accepts(c Clip) bool {
	return len(e.profile.Bands) > 0 && c.Format == FormatPCM && c.Channels == 1 && c.SampleRate > 0
}

func (e Equalizer) Process(_ context.Context, c Clip) (Clip, error) {
	buf := make([]float64, len(c.Data)/2)
	for i, s := range c.Samples() {
		buf[i] = float64(s)
	}
	for _, b := range e.profile.Bands {
		newBiquad(b, float64(c.SampleRate)).apply(buf)
	}
	out := make([]int16, len(buf))
	for i, v := range buf {
		out[i] = clamp16(math.Round(v))
	}
	return PCMClip(out, c.SampleRate, 1), nil
}

// biquad is a direct form I filter with normalized coefficients.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

// newBiquad follows the RBJ audio EQ cookbook.
func newBiquad(b Band, rate float64) biquad {
	A := math.Pow(10, b.GainDB/40)
	w0 := 2 * math.Pi * b.FreqHz / rate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	q := b.Q
	if q <= 0 {
		q = 0.707
	}
	alpha := sinw / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.Kind {
	case HighShelf:
		sqA := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw + sqA)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw)
		b2 = A * ((A + 1) + (A-1)*cosw - sqA)
		a0 = (A + 1) - (A-1)*cosw + sqA
		a1 = 2 * ((A - 1) - (A+1)*cosw)
		a2 = (A + 1) - (A-1)*cosw - sqA
	default:
		b0 = 1 + alpha*A
		b1 = -2 * cosw
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw
		a2 = 1 - alpha/A
	}
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func (f biquad) apply(x []float64) {
	var x1, x2, y1, y2 float64
	for i, in := range x {
		out := f.b0*in + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, in
		y2, y1 = y1, out
		x[i] = out
	}
}
