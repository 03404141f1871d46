package httptransport

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/audio"
	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/synthesis"
	"sleepvoice-server-go/internal/platform/config"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

type fakeVoicer struct {
	resp services.Response
	err  error

	gotReq  speech.VoiceRequest
	gotText string
	gotOpts services.OutputOptions
}

func (f *fakeVoicer) Handle(_ context.Context, req speech.VoiceRequest, t speech.Transcript, opts services.OutputOptions) (services.Response, error) {
	f.gotReq, f.gotText, f.gotOpts = req, t.Raw(), opts
	return f.resp, f.err
}

func (f *fakeVoicer) Catalog() services.Catalog {
	return services.Catalog{
		Defaults:   services.OutputOptions{Format: "wav", Equalizer: "compensated"},
		Formats:    []string{"pcm", "wav", "opus"},
		Equalizers: []string{"compensated", "none"},
		Voices:     []string{"en-US-AriaNeural"},
	}
}

func spokenResponse() services.Response {
	return services.Response{
		Result:   speech.Success(speech.HandlerTimeReport, speech.TimeReport, "It's 10:30 PM."),
		Delivery: speech.Dynamic(),
		Output: synthesis.Output{
			Audio:  []byte("RIFFfake"),
			Format: audio.FormatWAV,
			Mode:   speech.DeliveryDynamic,
			Voice:  "en-US-AriaNeural",
		},
	}
}

type testServer struct {
	engine  *gin.Engine
	voicer  *fakeVoicer
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, authority *auth.TokenAuthority, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	metrics := observability.NewMetrics()
	router, err := Build(Options{
		Server:      config.ServerConfig{CORSOrigins: []string{"*"}},
		Logger:      logging.NewNop(),
		Metrics:     metrics,
		MetricsPath: "/metrics",
		Authority:   authority,
		Limiter:     limiter,
	})
	require.NoError(t, err)

	voicer := &fakeVoicer{resp: spokenResponse()}
	NewVoiceAPI(voicer, logging.NewNop()).Register(router.Secured)
	NewHealthAPI(time.Now().Add(-time.Minute), map[string]StatusFunc{
		"tts_breaker": func() string { return "closed" },
	}).Register(router.API)

	return &testServer{engine: router.Engine, voicer: voicer, metrics: metrics}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

var deviceHeaders = map[string]string{auth.HeaderDevice: "dev-1", auth.HeaderAccount: "acct-1"}

const voiceBody = `{"transcript":{"text":"What time is it","timezone":"UTC"},"format":"wav"}`

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    int                 `json:"code"`
	Data    services.ResultView `json:"data"`
}

func TestVoiceJSON(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "time_report", env.Data.Handler)
	assert.Equal(t, "It's 10:30 PM.", env.Data.Text)
	assert.Equal(t, []byte("RIFFfake"), env.Data.Audio)
	assert.Contains(t, rec.Body.String(), base64.StdEncoding.EncodeToString([]byte("RIFFfake")))

	assert.Equal(t, "dev-1", s.voicer.gotReq.DeviceID)
	assert.Equal(t, "acct-1", s.voicer.gotReq.AccountID)
	assert.Equal(t, "What time is it", s.voicer.gotText)
	assert.Equal(t, "wav", s.voicer.gotOpts.Format)
}

func TestVoiceAudioHeaders(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do("POST", "/api/v1/voice/audio", voiceBody, deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFFfake", rec.Body.String())
	assert.Equal(t, "TIME_REPORT", rec.Header().Get(HeaderCommand))
	assert.Equal(t, "true", rec.Header().Get(HeaderSuccess))
	assert.Equal(t, "dynamic", rec.Header().Get(HeaderDelivery))
}

func TestVoiceAudioSilentIsNoContent(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.voicer.resp = services.Response{
		Result:   speech.Success(speech.HandlerSleepSound, speech.SleepSoundStop, ""),
		Delivery: speech.Silent(),
		Output:   synthesis.Output{Mode: speech.DeliverySilent, Format: audio.FormatPCM},
	}

	rec := s.do("POST", "/api/v1/voice/audio", voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "silent", rec.Header().Get(HeaderDelivery))
}

func TestVoiceRejectsMalformed(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do("POST", "/api/v1/voice", `{"transcript":`, deviceHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("POST", "/api/v1/voice", `{"transcript":{"text":"hi","timezone":"Nowhere/City"}}`, deviceHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.voicer.err = errors.New(errors.KindDomain, "voice.options", "unsupported output format")
	rec = s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.voicer.err = errors.New(errors.KindAudio, "voice.synthesize", "boom")
	rec = s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")

	rec = s.do("POST", "/api/v1/voice", strings.Repeat(" ", maxRequestBytes+10)+voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestVoiceRequiresIdentity(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do("POST", "/api/v1/voice", voiceBody, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVoiceBearerToken(t *testing.T) {
	authority, err := auth.NewTokenAuthority("s3cret", "sleepvoice")
	require.NoError(t, err)
	s := newTestServer(t, authority, nil)

	rec := s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "headers are ignored when tokens are required")

	token, err := authority.Issue(auth.Identity{DeviceID: "dev-7", AccountID: "acct-7"})
	require.NoError(t, err)
	rec = s.do("POST", "/api/v1/voice", voiceBody, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-7", s.voicer.gotReq.DeviceID)
}

func TestVoiceRateLimited(t *testing.T) {
	s := newTestServer(t, nil, ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1}))

	assert.Equal(t, http.StatusOK, s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders).Code)
	rec := s.do("POST", "/api/v1/voice", voiceBody, deviceHeaders)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	other := map[string]string{auth.HeaderDevice: "dev-2", auth.HeaderAccount: "acct-1"}
	assert.Equal(t, http.StatusOK, s.do("POST", "/api/v1/voice", voiceBody, other).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do("GET", "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data HealthReport `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data.Status)
	assert.GreaterOrEqual(t, env.Data.UptimeSeconds, int64(59))
	assert.Equal(t, "closed", env.Data.Components["tts_breaker"])

	rec = s.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sleepvoice_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestUnknownAPIRoute(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do("GET", "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "api not found")
}

type fakeHistory struct {
	entries  []repository.Entry
	counts   map[string]int64
	err      error
	gotLimit int
	gotSince time.Time
}

func (f *fakeHistory) HandlerStats(_ context.Context, since time.Time) (map[string]int64, error) {
	f.gotSince = since
	return f.counts, f.err
}

func (f *fakeHistory) FindByDevice(_ context.Context, deviceID string, limit int) ([]repository.Entry, error) {
	f.gotLimit = limit
	var out []repository.Entry
	for _, e := range f.entries {
		if e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	return out, f.err
}

func TestHistory(t *testing.T) {
	router, err := Build(Options{Logger: logging.NewNop()})
	require.NoError(t, err)
	history := &fakeHistory{entries: []repository.Entry{
		{ID: "2", DeviceID: "dev-1", Handler: "alarm", Command: "ALARM_SET", Success: true},
		{ID: "1", DeviceID: "dev-2", Handler: "trivia", Command: "TRIVIA_ASK", Success: true},
	}}
	NewHistoryAPI(history).Register(router.Secured)
	s := &testServer{engine: router.Engine}

	rec := s.do(http.MethodGet, "/api/v1/history?limit=5", "", deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []repository.Entry `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "alarm", body.Data[0].Handler)
	assert.Equal(t, 5, history.gotLimit)

	rec = s.do(http.MethodGet, "/api/v1/history?limit=-1", "", deviceHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	history.err = errors.New(errors.KindStorage, "journal.find.device", "db down")
	rec = s.do(http.MethodGet, "/api/v1/history", "", deviceHeaders)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, defaultHistoryLimit, history.gotLimit)

	rec = s.do(http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHistoryStats(t *testing.T) {
	router, err := Build(Options{Logger: logging.NewNop()})
	require.NoError(t, err)
	history := &fakeHistory{counts: map[string]int64{"alarm": 3, "sleep_sound": 1}}
	NewHistoryAPI(history).Register(router.Secured)
	s := &testServer{engine: router.Engine}

	before := time.Now()
	rec := s.do(http.MethodGet, "/api/v1/history/stats", "", deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data HandlerStats `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data.Counts["alarm"])
	assert.WithinDuration(t, before.Add(-defaultStatsWindow), history.gotSince, 5*time.Second)

	rec = s.do(http.MethodGet, "/api/v1/history/stats?since=90m", "", deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().Add(-90*time.Minute), history.gotSince, 5*time.Second)

	for _, bad := range []string{"yesterday", "-1h", "0s"} {
		rec = s.do(http.MethodGet, "/api/v1/history/stats?since="+bad, "", deviceHeaders)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}

	rec = s.do(http.MethodGet, "/api/v1/history/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	history.err = errors.New(errors.KindStorage, "journal.stats", "db down")
	rec = s.do(http.MethodGet, "/api/v1/history/stats", "", deviceHeaders)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVoiceOptions(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/api/v1/voice/options", "", deviceHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data services.Catalog `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"pcm", "wav", "opus"}, body.Data.Formats)
	assert.Equal(t, "compensated", body.Data.Defaults.Equalizer)

	rec = s.do(http.MethodGet, "/api/v1/voice/options", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenAPIDocument(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/v1/voice")
	assert.Contains(t, doc.Paths["/v1/voice/options"], "get")
	assert.Contains(t, doc.Paths, "/v1/history/stats")

	rec = s.do(http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `data-url="/openapi.json"`)
}
