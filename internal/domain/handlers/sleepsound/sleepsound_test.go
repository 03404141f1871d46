package sleepsound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/task"
	"sleepvoice-server-go/internal/util/optional"
)

var (
	req = speech.VoiceRequest{AccountID: "acct-1", DeviceID: "dev-1"}
	key = model.DeviceKey{AccountID: "acct-1", DeviceID: "dev-1"}

	catalog = []model.Sound{
		{ID: "rain", Name: "Rain", URL: "https://cdn.example.com/rain.mp3"},
		{ID: "ocean", Name: "Ocean Waves", URL: "https://cdn.example.com/ocean.mp3"},
	}
)

type scheduled struct {
	delay time.Duration
	name  string
}

// inlineDeferrer runs tasks synchronously and records what was asked.
type inlineDeferrer struct {
	calls []scheduled
	err   error
	runs  []error
}

func (d *inlineDeferrer) Schedule(delay time.Duration, name string, fn task.Func) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.calls = append(d.calls, scheduled{delay: delay, name: name})
	d.runs = append(d.runs, fn(context.Background()))
	return "task-1", nil
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) StartAudio(ctx context.Context, cmd eventbus.AudioCommand) (optional.Value[string], error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(optional.Value[string]), args.Error(1)
}

func (m *mockMessenger) StopAudio(ctx context.Context, deviceID string) (optional.Value[string], error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(optional.Value[string]), args.Error(1)
}

func setup(t *testing.T, sounds []model.Sound) (*Handler, store.Store, *inlineDeferrer, *mockMessenger) {
	t.Helper()
	st := store.NewMemory()
	if sounds != nil {
		require.NoError(t, st.SetSounds(context.Background(), key, sounds))
	}
	d := &inlineDeferrer{}
	m := &mockMessenger{}
	h := New(st, d, m, DefaultConfig(), common.NewBase(nil, nil, time.Second))
	return h, st, d, m
}

func run(t *testing.T, h *Handler, text string, opts ...speech.TranscriptOption) speech.Result {
	t.Helper()
	tr := speech.NewTranscript(text, opts...)
	cmd, ok := h.Claim(tr).Get()
	require.True(t, ok, "sleep sound handler should claim %q", text)
	return h.Execute(context.Background(), tr, req, cmd)
}

func TestPlay_NamedSoundWithDuration(t *testing.T) {
	h, st, d, m := setup(t, catalog)
	m.On("StartAudio", mock.Anything, eventbus.AudioCommand{
		DeviceID:      "dev-1",
		SoundID:       "ocean",
		SoundName:     "Ocean Waves",
		SoundURL:      "https://cdn.example.com/ocean.mp3",
		Duration:      time.Hour,
		VolumePercent: 50,
	}).Return(optional.Some("ack-1"), nil).Once()

	res := run(t, h, "play ocean sounds for an hour",
		speech.WithSounds(speech.SoundAnnotation{Text: "ocean", Name: "ocean"}),
		speech.WithDurations(speech.DurationAnnotation{Text: "an hour", Duration: time.Hour}))

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.SleepSoundPlay, res.Command)
	assert.Equal(t, "Ok, playing Ocean Waves for 1 hour.", res.Outcome.ResponseText)
	require.Len(t, d.calls, 1)
	assert.Equal(t, 3*time.Second, d.calls[0].delay)
	assert.NoError(t, d.runs[0])
	m.AssertExpectations(t)

	setting, err := st.GetSoundSetting(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "ocean", setting.OrElse(model.SoundSetting{}).LastSoundID)
}

func TestPlay_FallsBackToLastSoundAndSettingDuration(t *testing.T) {
	h, st, _, m := setup(t, catalog)
	require.NoError(t, st.SetSoundSetting(context.Background(), key,
		model.SoundSetting{LastSoundID: "rain", DurationMinutes: 45, VolumePercent: 30}))
	m.On("StartAudio", mock.Anything, mock.MatchedBy(func(cmd eventbus.AudioCommand) bool {
		return cmd.SoundID == "rain" && cmd.Duration == 45*time.Minute && cmd.VolumePercent == 30
	})).Return(optional.None[string](), nil).Once()

	res := run(t, h, "play a sleep sound")

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, "Ok, playing Rain for 45 minutes.", res.Outcome.ResponseText)
	m.AssertExpectations(t)
}

func TestPlay_DefaultDurationWithoutSetting(t *testing.T) {
	h, _, _, m := setup(t, catalog)
	m.On("StartAudio", mock.Anything, mock.Anything).Return(optional.None[string](), nil)

	res := run(t, h, "play white noise")

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, "Ok, playing Rain for 30 minutes.", res.Outcome.ResponseText)
}

func TestPlay_UnknownSound(t *testing.T) {
	h, _, d, m := setup(t, catalog)

	res := run(t, h, "play thunder sounds",
		speech.WithSounds(speech.SoundAnnotation{Text: "thunder", Name: "thunder"}))

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeSoundNotFound, res.Outcome.Code)
	assert.Equal(t, "Sorry, I couldn't find the sound thunder.", res.Outcome.ResponseText)
	assert.Empty(t, d.calls)
	m.AssertNotCalled(t, "StartAudio", mock.Anything, mock.Anything)
}

func TestPlay_EmptyCatalog(t *testing.T) {
	h, _, d, _ := setup(t, nil)

	res := run(t, h, "play rain sounds")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeSoundNotFound, res.Outcome.Code)
	assert.Equal(t, TextNoSounds, res.Outcome.ResponseText)
	assert.Empty(t, d.calls)
}

func TestPlay_ScheduleFailure(t *testing.T) {
	h, _, d, _ := setup(t, catalog)
	d.err = errors.New("scheduler stopped")

	res := run(t, h, "play rain sounds")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeUpstreamFailure, res.Outcome.Code)
}

func TestPlay_DeliveryFailureDoesNotFailResult(t *testing.T) {
	h, _, d, m := setup(t, catalog)
	m.On("StartAudio", mock.Anything, mock.Anything).Return(optional.None[string](), errors.New("socket gone"))

	res := run(t, h, "play rain sounds")

	assert.True(t, res.Outcome.Success)
	require.Len(t, d.runs, 1)
	assert.Error(t, d.runs[0])
}

func TestStop_SilentAndImmediate(t *testing.T) {
	h, _, d, m := setup(t, catalog)
	m.On("StopAudio", mock.Anything, "dev-1").Return(optional.Some("ack-2"), nil).Once()

	res := run(t, h, "stop the sound")

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.SleepSoundStop, res.Command)
	require.Len(t, d.calls, 1)
	assert.Zero(t, d.calls[0].delay)
	assert.Equal(t, speech.Silent(), h.Delivery(res.Command, res))
	m.AssertExpectations(t)
}

func TestClaimAndScore(t *testing.T) {
	h, _, _, _ := setup(t, catalog)

	cases := map[string]optional.Value[speech.Command]{
		"turn off the ocean noise": optional.Some(speech.SleepSoundStop),
		"put on some rain":         optional.Some(speech.SleepSoundPlay),
		"set an alarm for 7":       optional.None[speech.Command](),
	}
	for text, want := range cases {
		assert.Equal(t, want, h.Claim(speech.NewTranscript(text)), text)
	}
	assert.Equal(t, optional.Some(speech.SleepSoundPlay),
		h.Claim(speech.NewTranscript("wake me up with rain", speech.WithSounds(speech.SoundAnnotation{Text: "rain", Name: "rain"}))))

	tr := speech.NewTranscript("play rain for ten minutes",
		speech.WithSounds(speech.SoundAnnotation{Text: "rain", Name: "rain"}),
		speech.WithDurations(speech.DurationAnnotation{Text: "ten minutes", Duration: 10 * time.Minute}))
	assert.Equal(t, 2, h.Score(tr))
	assert.Equal(t, speech.Dynamic(), h.Delivery(speech.SleepSoundPlay, speech.Success(speech.HandlerSleepSound, speech.SleepSoundPlay, "x")))
}
