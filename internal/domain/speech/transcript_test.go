package speech

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTranscript(t *testing.T) {
	loc := time.FixedZone("test", -8*3600)
	tr := NewTranscript("  Set an ALARM for 7 AM ",
		WithTimezone(loc),
		WithTimes(TimeAnnotation{Text: "7 am", Hour: 7}),
	)

	assert.Equal(t, "Set an ALARM for 7 AM", tr.Raw())
	assert.Equal(t, "set an alarm for 7 am", tr.Lower())

	gotLoc, ok := tr.Timezone().Get()
	assert.True(t, ok)
	assert.Equal(t, loc, gotLoc)

	ann, ok := tr.FirstTime().Get()
	assert.True(t, ok)
	assert.Equal(t, 7, ann.Hour)

	assert.False(t, tr.FirstSound().IsPresent())
	assert.False(t, tr.FirstDuration().IsPresent())
}

func TestTranscript_AccessorsCopy(t *testing.T) {
	tr := NewTranscript("play rain", WithSounds(SoundAnnotation{Text: "rain", Name: "rain"}))

	sounds := tr.Sounds()
	sounds[0].Name = "ocean"

	assert.Equal(t, "rain", tr.FirstSound().OrElse(SoundAnnotation{}).Name)
}

func TestTranscript_NilTimezoneIsAbsent(t *testing.T) {
	tr := NewTranscript("what time is it", WithTimezone(nil))
	assert.False(t, tr.Timezone().IsPresent())
}

func TestErrorCode_Class(t *testing.T) {
	assert.Equal(t, ClassMissingPrecondition, CodeNoTimezone.Class())
	assert.Equal(t, ClassOutOfRange, CodeTooLate.Class())
	assert.Equal(t, ClassConflict, CodeDuplicateAlarm.Class())
	assert.Equal(t, ClassNotFound, CodeNoSensorData.Class())
	assert.Equal(t, ClassStaleData, CodeStaleSensorData.Class())
	assert.Equal(t, ClassUnrecognized, CodeUnrecognized.Class())
	assert.Equal(t, ClassUpstreamFailure, ErrorCode("mystery").Class())
}

func TestResultBuilders(t *testing.T) {
	ok := Success(HandlerAlarm, AlarmSet, "done")
	assert.True(t, ok.Outcome.Success)
	assert.Equal(t, CodeNone, ok.Outcome.Code)
	assert.False(t, ok.Side.IsPresent())

	fail := Failure(HandlerLights, LightOn, CodeNoPairedDevice, "nope").WithSide(LightAction{BrightnessDelta: 10})
	assert.False(t, fail.Outcome.Success)
	assert.True(t, fail.Side.IsPresent())
}
