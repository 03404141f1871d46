package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

var (
	la, _ = time.LoadLocation("America/Los_Angeles")
	// Tuesday morning
	fixedNow = time.Date(2026, 3, 10, 6, 0, 0, 0, la)
	req      = speech.VoiceRequest{AccountID: "acct-1", DeviceID: "dev-1"}
	key      = model.DeviceKey{AccountID: "acct-1", DeviceID: "dev-1"}
)

func newHandler(t *testing.T, st store.Store) *Handler {
	t.Helper()
	h := New(st, DefaultConfig(), common.NewBase(nil, func() time.Time { return fixedNow }, time.Second))
	n := 0
	h.newID = func() string {
		n++
		return "alarm-" + string(rune('0'+n))
	}
	return h
}

func at(hour, minute int, opts ...func(*speech.TimeAnnotation)) speech.TranscriptOption {
	ann := speech.TimeAnnotation{Hour: hour, Minute: minute}
	for _, o := range opts {
		o(&ann)
	}
	return speech.WithTimes(ann)
}

func onDate(d time.Time) func(*speech.TimeAnnotation) {
	return func(a *speech.TimeAnnotation) {
		a.Date = optional.Some(speech.CivilDate{Year: d.Year(), Month: d.Month(), Day: d.Day()})
	}
}

func oneShotAt(ring time.Time, source model.AlarmSource) model.Alarm {
	return model.Alarm{
		ID: ring.Format("1504"), Year: ring.Year(), Month: int(ring.Month()), Day: ring.Day(),
		Hour: ring.Hour(), Minute: ring.Minute(), Enabled: true, Source: source,
	}
}

func run(t *testing.T, h *Handler, text string, opts ...speech.TranscriptOption) speech.Result {
	t.Helper()
	tr := speech.NewTranscript(text, opts...)
	cmd, ok := h.Claim(tr).Get()
	require.True(t, ok, "alarm handler should claim %q", text)
	return h.Execute(context.Background(), tr, req, cmd)
}

func TestSet_EndToEnd(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	res := run(t, h, "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.AlarmSet, res.Command)
	assert.Equal(t, "Ok, your alarm is set for 7:00 AM.", res.Outcome.ResponseText)

	alarms, err := st.GetAlarms(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, model.SourceVoice, alarms[0].Source)
	assert.Equal(t, 7, alarms[0].Hour)
	assert.Equal(t, 10, alarms[0].Day)
	assert.True(t, alarms[0].Enabled)
}

func TestSet_RollsToTomorrowWhenPast(t *testing.T) {
	st := store.NewMemory()
	h := newHandler(t, st)

	res := run(t, h, "wake me up at 5:30", speech.WithTimezone(la), at(5, 30))
	require.True(t, res.Outcome.Success)

	alarms, _ := st.GetAlarms(context.Background(), key)
	require.Len(t, alarms, 1)
	assert.Equal(t, 11, alarms[0].Day)
}

func TestSet_UsesPreferenceTimezone(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.SetPreferences(context.Background(), "acct-1", model.Preferences{Timezone: "America/Los_Angeles"}))

	res := run(t, newHandler(t, st), "set an alarm for 7 am", at(7, 0))
	assert.True(t, res.Outcome.Success)
}

func TestSet_Preconditions(t *testing.T) {
	h := newHandler(t, store.NewMemory())

	res := run(t, h, "set an alarm for 7 am", at(7, 0))
	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeNoTimezone, res.Outcome.Code)
	assert.Equal(t, TextSetFailed, res.Outcome.ResponseText)

	res = run(t, h, "set an alarm", speech.WithTimezone(la))
	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeNoTime, res.Outcome.Code)
	assert.Equal(t, TextNoTime, res.Outcome.ResponseText)
}

func TestSet_Range(t *testing.T) {
	tests := []struct {
		name string
		opt  speech.TranscriptOption
		code speech.ErrorCode
	}{
		{name: "3 minutes", opt: at(6, 3), code: speech.CodeTooSoon},
		{name: "25 hours", opt: at(7, 0, onDate(fixedNow.AddDate(0, 0, 1))), code: speech.CodeTooLate},
		{name: "10 minutes", opt: at(6, 10), code: speech.CodeNone},
		{name: "exactly 5 minutes", opt: at(6, 5), code: speech.CodeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			res := run(t, newHandler(t, st), "set an alarm", speech.WithTimezone(la), tt.opt)
			assert.Equal(t, tt.code, res.Outcome.Code)
			assert.Equal(t, tt.code == speech.CodeNone, res.Outcome.Success)

			alarms, _ := st.GetAlarms(context.Background(), key)
			if tt.code == speech.CodeNone {
				assert.Len(t, alarms, 1)
			} else {
				assert.Empty(t, alarms)
			}
		})
	}
}

func TestSet_TooSoonNamesConfiguredLead(t *testing.T) {
	res := run(t, newHandler(t, store.NewMemory()), "set an alarm", speech.WithTimezone(la), at(6, 3))
	assert.Equal(t, "Sorry, your alarm needs to be at least 5 minutes from now.", res.Outcome.ResponseText)

	h := New(store.NewMemory(), Config{MinLead: 15 * time.Minute}, common.NewBase(nil, func() time.Time { return fixedNow }, time.Second))
	res = run(t, h, "set an alarm", speech.WithTimezone(la), at(6, 10))
	assert.Equal(t, speech.CodeTooSoon, res.Outcome.Code)
	assert.Equal(t, "Sorry, your alarm needs to be at least 15 minutes from now.", res.Outcome.ResponseText)

	assert.Equal(t, "1 minute", leadPhrase(time.Minute))
	assert.Equal(t, "2 minutes", leadPhrase(90*time.Second))
}

func TestSet_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	existing := []model.Alarm{oneShotAt(time.Date(2026, 3, 10, 7, 0, 0, 0, la), model.SourceApp)}
	require.NoError(t, st.SetAlarms(ctx, key, existing))

	res := run(t, newHandler(t, st), "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeDuplicateAlarm, res.Outcome.Code)
	assert.Equal(t, speech.ClassConflict, res.Outcome.Code.Class())
	assert.Equal(t, "You already have an alarm set for 7:00 AM.", res.Outcome.ResponseText)

	alarms, _ := st.GetAlarms(ctx, key)
	assert.Len(t, alarms, 1)
}

func TestSet_RepeatingAlarmCountsAsDuplicate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{
		{ID: "weekday", Hour: 7, Repeated: true, DaysOfWeek: []int{1, 2, 3, 4, 5}, Enabled: true, Source: model.SourceApp},
	}))

	res := run(t, newHandler(t, st), "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))
	assert.Equal(t, speech.CodeDuplicateAlarm, res.Outcome.Code)
}

func TestSet_DisabledAlarmIsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	disabled := oneShotAt(time.Date(2026, 3, 10, 7, 0, 0, 0, la), model.SourceApp)
	disabled.Enabled = false
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{disabled}))

	res := run(t, newHandler(t, st), "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))
	assert.True(t, res.Outcome.Success)

	alarms, _ := st.GetAlarms(ctx, key)
	assert.Len(t, alarms, 2)
}

func TestSet_PrunesExpiredVoiceAlarms(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	yesterday := fixedNow.AddDate(0, 0, -1)
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{
		oneShotAt(yesterday, model.SourceVoice),
		oneShotAt(yesterday.Add(time.Hour), model.SourceApp),
		oneShotAt(fixedNow.Add(3*time.Hour), model.SourceVoice),
	}))

	res := run(t, newHandler(t, st), "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))
	require.True(t, res.Outcome.Success)

	alarms, _ := st.GetAlarms(ctx, key)
	require.Len(t, alarms, 3)
	// ordered by occurrence; the expired app alarm has none and sorts last
	assert.Equal(t, 7, alarms[0].Hour)
	assert.Equal(t, 9, alarms[1].Hour)
	assert.Equal(t, model.SourceApp, alarms[2].Source)
}

func TestGet_Phrasing(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemory()
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{oneShotAt(fixedNow.Add(30*time.Minute), model.SourceApp)}))
	res := run(t, newHandler(t, st), "when is my alarm", speech.WithTimezone(la))
	assert.True(t, res.Outcome.Success)
	assert.Equal(t, "Your next alarm is set for 6:30 AM today.", res.Outcome.ResponseText)

	st = store.NewMemory()
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{oneShotAt(fixedNow.Add(25*time.Hour), model.SourceApp)}))
	res = run(t, newHandler(t, st), "when is my alarm", speech.WithTimezone(la))
	assert.Equal(t, "Your next alarm is set for 7:00 AM tomorrow.", res.Outcome.ResponseText)
}

func TestGet_NoAlarms(t *testing.T) {
	res := run(t, newHandler(t, store.NewMemory()), "what time is my alarm", speech.WithTimezone(la))
	assert.True(t, res.Outcome.Success)
	assert.Equal(t, TextNoneUpcoming, res.Outcome.ResponseText)
}

func TestDelete_CancelsEarliestNonRepeating(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	repeating := model.Alarm{ID: "daily-8", Hour: 8, Repeated: true, DaysOfWeek: []int{1, 2, 3, 4, 5, 6, 7}, Enabled: true, Source: model.SourceApp}
	nine := oneShotAt(time.Date(2026, 3, 10, 9, 0, 0, 0, la), model.SourceApp)
	ten := oneShotAt(time.Date(2026, 3, 10, 10, 0, 0, 0, la), model.SourceVoice)
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{ten, repeating, nine}))

	res := run(t, newHandler(t, st), "cancel my alarm", speech.WithTimezone(la))

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, "Ok, your alarm for 9:00 AM has been canceled.", res.Outcome.ResponseText)

	alarms, _ := st.GetAlarms(ctx, key)
	assert.Equal(t, []model.Alarm{ten, repeating}, alarms)
}

func TestDelete_NothingEligible(t *testing.T) {
	ctx := context.Background()

	res := run(t, newHandler(t, store.NewMemory()), "delete my alarm", speech.WithTimezone(la))
	assert.Equal(t, speech.CodeNothingToCancel, res.Outcome.Code)
	assert.Equal(t, TextNothingToCancel, res.Outcome.ResponseText)

	st := store.NewMemory()
	require.NoError(t, st.SetAlarms(ctx, key, []model.Alarm{
		{ID: "daily", Hour: 8, Repeated: true, DaysOfWeek: []int{2}, Enabled: true},
	}))
	res = run(t, newHandler(t, st), "please remove the alarm", speech.WithTimezone(la))
	assert.Equal(t, speech.CodeRepeatingOnly, res.Outcome.Code)
	assert.Equal(t, TextRepeatingOnly, res.Outcome.ResponseText)

	alarms, _ := st.GetAlarms(ctx, key)
	assert.Len(t, alarms, 1)
}

type failingStore struct {
	store.Store
}

func (failingStore) GetAlarms(context.Context, model.DeviceKey) ([]model.Alarm, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailureIsSpoken(t *testing.T) {
	h := newHandler(t, failingStore{Store: store.NewMemory()})

	res := run(t, h, "set an alarm for 7 am", speech.WithTimezone(la), at(7, 0))
	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeStoreFailure, res.Outcome.Code)
	assert.Equal(t, TextSetFailed, res.Outcome.ResponseText)
}

func TestClaimAndScore(t *testing.T) {
	h := newHandler(t, store.NewMemory())

	soundOnly := speech.NewTranscript("play rain sounds", speech.WithSounds(speech.SoundAnnotation{Name: "rain"}))
	assert.False(t, h.Claim(soundOnly).IsPresent())
	assert.Zero(t, h.Score(soundOnly))

	tests := map[string]speech.Command{
		"set an alarm for 7":             speech.AlarmSet,
		"could you create an alarm":      speech.AlarmSet,
		"when is my next alarm":          speech.AlarmGet,
		"what time is my alarm set for":  speech.AlarmGet,
		"turn off my alarm for tomorrow": speech.AlarmDelete,
		"cancel my alarm":                speech.AlarmDelete,
	}
	for text, want := range tests {
		got, ok := h.Claim(speech.NewTranscript(text)).Get()
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	assert.Equal(t, 1, h.Score(speech.NewTranscript("x", at(7, 0))))
}
