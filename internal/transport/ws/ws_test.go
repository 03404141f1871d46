package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/audio"
	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/synthesis"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

type stubVoicer struct {
	resp services.Response
	err  error
}

func (s stubVoicer) Handle(_ context.Context, req speech.VoiceRequest, t speech.Transcript, _ services.OutputOptions) (services.Response, error) {
	if s.err != nil {
		return services.Response{}, s.err
	}
	resp := s.resp
	resp.Result.Outcome.ResponseText = req.DeviceID + ": " + t.Raw()
	return resp, nil
}

func spoken() services.Response {
	return services.Response{
		Result:   speech.Success(speech.HandlerSmallTalk, speech.SmallTalkThanks, ""),
		Delivery: speech.Dynamic(),
		Output:   synthesis.Output{Audio: []byte{1, 2, 3, 4}, Format: audio.FormatPCM, Mode: speech.DeliveryDynamic},
	}
}

func startServer(t *testing.T, voicer Voicer, opts RouterOptions) (*Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, voicer, logging.NewNop(), nil, opts)
	httpSrv := httptest.NewServer(http.HandlerFunc(srv.Router().Handle))
	t.Cleanup(func() {
		srv.Stop()
		httpSrv.Close()
		cancel()
	})
	return srv, "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello ServerFrame
	readJSON(t, conn, &hello)
	require.Equal(t, FrameHello, hello.Type)
	require.NotEmpty(t, hello.Session)
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	require.NoError(t, sonic.Unmarshal(data, v))
}

func identityHeader(device string) http.Header {
	h := http.Header{}
	h.Set(auth.HeaderDevice, device)
	h.Set(auth.HeaderAccount, "acct-1")
	return h
}

const voiceFrame = `{"type":"voice","id":"r1","transcript":{"text":"Thank you"},"format":"pcm"}`

func TestVoiceFrameGetsResultThenAudio(t *testing.T) {
	srv, url := startServer(t, stubVoicer{resp: spoken()}, RouterOptions{})
	conn := dial(t, url, identityHeader("dev-1"))
	assert.Equal(t, 1, srv.Hub().Count())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(voiceFrame)))

	var result ServerFrame
	readJSON(t, conn, &result)
	assert.Equal(t, FrameResult, result.Type)
	assert.Equal(t, "r1", result.ID)
	require.NotNil(t, result.Result)
	assert.Equal(t, "dev-1: Thank you", result.Result.Text)
	assert.Equal(t, 4, result.Result.AudioSize)

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestSilentResultHasNoAudioFrame(t *testing.T) {
	resp := services.Response{
		Result:   speech.Success(speech.HandlerSleepSound, speech.SleepSoundStop, ""),
		Delivery: speech.Silent(),
		Output:   synthesis.Output{Mode: speech.DeliverySilent},
	}
	_, url := startServer(t, stubVoicer{resp: resp}, RouterOptions{})
	conn := dial(t, url, identityHeader("dev-1"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(voiceFrame)))
	var result ServerFrame
	readJSON(t, conn, &result)
	assert.Equal(t, 0, result.Result.AudioSize)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","id":"p1"}`)))
	var pong ServerFrame
	readJSON(t, conn, &pong)
	assert.Equal(t, FramePong, pong.Type, "next frame after a silent result is the pong, not audio")
}

func TestErrorFrames(t *testing.T) {
	_, url := startServer(t, stubVoicer{err: errors.New(errors.KindDomain, "voice.options", "unsupported output format")}, RouterOptions{})
	conn := dial(t, url, identityHeader("dev-1"))

	cases := []struct {
		frame string
		want  string
	}{
		{`not json`, "invalid frame"},
		{`{"type":"dance"}`, "unknown frame type dance"},
		{`{"type":"voice","id":"x","transcript":{"text":""}}`, "transcript text is empty"},
		{voiceFrame, "unsupported output format"},
	}
	for _, tc := range cases {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.frame)))
		var f ServerFrame
		readJSON(t, conn, &f)
		assert.Equal(t, FrameError, f.Type)
		assert.Contains(t, f.Error, tc.want)
	}
}

func TestRateLimitedFrames(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1})
	_, url := startServer(t, stubVoicer{resp: spoken()}, RouterOptions{Limiter: limiter})
	conn := dial(t, url, identityHeader("dev-1"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(voiceFrame)))
	var first ServerFrame
	readJSON(t, conn, &first)
	_, _, err := conn.ReadMessage() // audio
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(voiceFrame)))
	var second ServerFrame
	readJSON(t, conn, &second)
	assert.Equal(t, FrameError, second.Type)
	assert.Equal(t, "too many requests", second.Error)
}

func TestHandshakeRequiresIdentity(t *testing.T) {
	authority, err := auth.NewTokenAuthority("s3cret", "")
	require.NoError(t, err)
	_, url := startServer(t, stubVoicer{resp: spoken()}, RouterOptions{Authority: authority})

	_, resp, err := websocket.DefaultDialer.Dial(url, identityHeader("dev-1"))
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := authority.Issue(auth.Identity{DeviceID: "dev-9", AccountID: "acct"})
	require.NoError(t, err)
	dial(t, url+"?token="+token, nil)
}

func TestDeviceMessagesAreForwarded(t *testing.T) {
	srv, url := startServer(t, stubVoicer{resp: spoken()}, RouterOptions{})
	bus := eventbus.NewAsyncEventBus(1, logging.NewNop())
	require.NoError(t, eventbus.SubscribeLogging(bus, logging.NewNop()))
	messenger := eventbus.NewBusMessenger(bus)
	srv.Serve(messenger)

	conn := dial(t, url, identityHeader("dev-1"))
	other := dial(t, url, identityHeader("dev-2"))

	offline, err := messenger.StopAudio(context.Background(), "dev-3")
	require.NoError(t, err)
	assert.False(t, offline.IsPresent(), "no session for dev-3")

	ack, err := messenger.StartAudio(context.Background(), eventbus.AudioCommand{
		DeviceID:      "dev-1",
		SoundID:       "rain",
		SoundName:     "Rain",
		Duration:      30 * time.Minute,
		VolumePercent: 50,
	})
	require.NoError(t, err)
	id, ok := ack.Get()
	require.True(t, ok)

	var f ServerFrame
	readJSON(t, conn, &f)
	assert.Equal(t, FrameDevice, f.Type)
	require.NotNil(t, f.Message)
	assert.Equal(t, id, f.Message.ID)
	assert.Equal(t, eventbus.MessageStartAudio, f.Message.Kind)
	assert.Equal(t, 1800, f.Message.DurationSecs)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "other devices receive nothing")
}

func TestReconnectReplacesSession(t *testing.T) {
	srv, url := startServer(t, stubVoicer{resp: spoken()}, RouterOptions{})
	first := dial(t, url, identityHeader("dev-1"))
	dial(t, url, identityHeader("dev-1"))

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Eventually(t, func() bool { return srv.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)
}
