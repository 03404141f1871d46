package timereport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
)

var (
	fixedNow = time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	req      = speech.VoiceRequest{AccountID: "acct-1", DeviceID: "dev-1"}
)

func ask(t *testing.T, st store.Store, text string, opts ...speech.TranscriptOption) speech.Result {
	t.Helper()
	h := New(st, common.NewBase(nil, func() time.Time { return fixedNow }, time.Second))
	tr := speech.NewTranscript(text, opts...)
	cmd, ok := h.Claim(tr).Get()
	require.True(t, ok, "time handler should claim %q", text)
	return h.Execute(context.Background(), tr, req, cmd)
}

func TestTimeFromTranscriptZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	res := ask(t, store.NewMemory(), "what time is it", speech.WithTimezone(tokyo))

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.TimeReport, res.Command)
	assert.Equal(t, "It's 11:05 PM.", res.Outcome.ResponseText)
}

func TestDayFromPreference(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.SetPreferences(context.Background(), "acct-1", model.Preferences{Timezone: "Pacific/Kiritimati"}))

	res := ask(t, st, "what's today's date")

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.DayReport, res.Command)
	assert.Equal(t, "Today is Wednesday, March 11.", res.Outcome.ResponseText)
}

func TestNoTimezone(t *testing.T) {
	res := ask(t, store.NewMemory(), "what time is it")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeNoTimezone, res.Outcome.Code)
	assert.Equal(t, speech.ClassMissingPrecondition, res.Outcome.Code.Class())
}
