package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/audio"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
)

type fakeBackend struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Synthesize(ctx context.Context, text, voice string) (audio.Clip, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return audio.Clip{}, ctx.Err()
		}
	}
	if f.err != nil {
		return audio.Clip{}, f.err
	}
	return audio.PCMClip([]int16{1, 2}, 24000, 1), nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeBackend{err: errors.New("boom")}
	b := NewBreaker(inner, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Synthesize(context.Background(), "hi", "")
		require.Error(t, err)
	}
	_, err := b.Synthesize(context.Background(), "hi", "")

	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindUpstream))
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, "open", b.State())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	b := NewBreaker(&fakeBackend{}, BreakerConfig{}, nil)

	clip, err := b.Synthesize(context.Background(), "hi", "")

	require.NoError(t, err)
	assert.Equal(t, 24000, clip.SampleRate)
	assert.Equal(t, "fake", b.Name())
}

func TestWithTimeout(t *testing.T) {
	b := WithTimeout(&fakeBackend{delay: time.Second}, 20*time.Millisecond)

	_, err := b.Synthesize(context.Background(), "hi", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVoiceSelector(t *testing.T) {
	fixed := NewVoiceSelector(VoiceModeFixed, []string{"a", "b"}, 1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "a", fixed.Pick())
	}

	random := NewVoiceSelector(VoiceModeRandom, []string{"a", "b", "c"}, 1)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		v := random.Pick()
		assert.Contains(t, []string{"a", "b", "c"}, v)
		seen[v] = true
	}
	assert.Len(t, seen, 3)

	assert.Equal(t, "", NewVoiceSelector(VoiceModeRandom, nil, 1).Pick())
}

func TestOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pcm", body["response_format"])
		assert.Equal(t, "nova", body["voice"])
		assert.Equal(t, "Hello.", body["input"])
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{1, 0, 2, 0})
	}))
	defer srv.Close()

	b, err := NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	clip, err := b.Synthesize(context.Background(), "Hello.", "nova")

	require.NoError(t, err)
	assert.Equal(t, audio.FormatPCM, clip.Format)
	assert.Equal(t, 24000, clip.SampleRate)
	assert.Equal(t, []int16{1, 2}, clip.Samples())
}

func TestOpenAIBackendMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{1})
	}))
	defer srv.Close()

	b, err := NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Synthesize(context.Background(), "Hello.", "")
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindUpstream))
}

func TestNewBackend(t *testing.T) {
	_, err := NewBackend(Config{Backend: "polly"}, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindConfig))

	_, err = NewBackend(Config{Backend: BackendOpenAI}, nil)
	require.Error(t, err)

	b, err := NewBackend(Config{Backend: BackendEdge, Timeout: time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, BackendEdge, b.Name())
	assert.IsType(t, &Breaker{}, b)
}
