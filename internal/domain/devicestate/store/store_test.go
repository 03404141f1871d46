package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/platform/storage"
	"sleepvoice-server-go/internal/util/optional"
)

// exerciseStore runs the behaviour every driver must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := model.DeviceKey{AccountID: "acct-1", DeviceID: "dev-1"}

	alarms, err := s.GetAlarms(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, alarms)

	want := []model.Alarm{
		{ID: "a1", Year: 2026, Month: 3, Day: 10, Hour: 7, Minute: 0, Enabled: true, Source: model.SourceVoice},
		{ID: "a2", Hour: 8, Minute: 30, Repeated: true, DaysOfWeek: []int{1, 2}, Enabled: true, Source: model.SourceApp},
	}
	require.NoError(t, s.SetAlarms(ctx, key, want))
	got, err := s.GetAlarms(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// full replacement, not a merge
	require.NoError(t, s.SetAlarms(ctx, key, want[:1]))
	got, err = s.GetAlarms(ctx, key)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	setting, err := s.GetSoundSetting(ctx, key)
	require.NoError(t, err)
	assert.False(t, setting.IsPresent())
	require.NoError(t, s.SetSoundSetting(ctx, key, model.SoundSetting{LastSoundID: "rain", VolumePercent: 40, DurationMinutes: 45}))
	setting, err = s.GetSoundSetting(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "rain", setting.OrElse(model.SoundSetting{}).LastSoundID)

	require.NoError(t, s.SetSounds(ctx, key, []model.Sound{{ID: "rain", Name: "Rainfall"}, {ID: "ocean", Name: "Ocean"}}))
	sounds, err := s.ListSounds(ctx, key)
	require.NoError(t, err)
	assert.Len(t, sounds, 2)

	snap, err := s.GetLatestSensorSnapshot(ctx, key.DeviceID)
	require.NoError(t, err)
	assert.False(t, snap.IsPresent())

	recorded := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSensorSnapshot(ctx, model.SensorSnapshot{
		DeviceID: key.DeviceID, RecordedAt: recorded, TemperatureC: optional.Some(21.5),
	}))
	require.NoError(t, s.PutSensorSnapshot(ctx, model.SensorSnapshot{
		DeviceID: key.DeviceID, RecordedAt: recorded.Add(-time.Hour), TemperatureC: optional.Some(18.0),
	}))
	snap, err = s.GetLatestSensorSnapshot(ctx, key.DeviceID)
	require.NoError(t, err)
	latest, ok := snap.Get()
	require.True(t, ok)
	assert.True(t, recorded.Equal(latest.RecordedAt))
	assert.Equal(t, 21.5, latest.TemperatureC.OrElse(0))
	assert.False(t, latest.Humidity.IsPresent())

	stats, err := s.GetSleepStats(ctx, key.AccountID, "2026-03-09")
	require.NoError(t, err)
	assert.False(t, stats.IsPresent())
	require.NoError(t, s.PutSleepStats(ctx, key.AccountID, model.SleepStats{Night: "2026-03-09", Score: 82, DurationMinutes: 440}))
	stats, err = s.GetSleepStats(ctx, key.AccountID, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 82, stats.OrElse(model.SleepStats{}).Score)

	require.NoError(t, s.SetPreferences(ctx, key.AccountID, model.Preferences{Timezone: "America/Los_Angeles", TemperatureUnit: model.Fahrenheit}))
	prefs, err := s.GetPreferences(ctx, key.AccountID)
	require.NoError(t, err)
	assert.Equal(t, model.Fahrenheit, prefs.OrElse(model.Preferences{}).TemperatureUnit)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStore_CopiesAlarms(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	key := model.DeviceKey{AccountID: "a", DeviceID: "d"}
	alarms := []model.Alarm{{ID: "x", DaysOfWeek: []int{1}}}
	require.NoError(t, s.SetAlarms(ctx, key, alarms))

	alarms[0].DaysOfWeek[0] = 5
	got, err := s.GetAlarms(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got[0].DaysOfWeek)
}

func TestSQLiteStore(t *testing.T) {
	db, err := storage.Open(storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })

	s, err := New(Config{Driver: DriverSQLite}, Dependencies{SQLiteDB: db})
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := New(Config{Driver: DriverRedis, Redis: &RedisConfig{Addr: mr.Addr(), Prefix: "test"}}, Dependencies{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	exerciseStore(t, s)
	assert.True(t, mr.Exists("test:alarms:acct-1:dev-1"))
}

func TestRedisStore_UnreachableFails(t *testing.T) {
	_, err := NewRedis(Config{Redis: &RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}})
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	s, err := New(Config{}, Dependencies{})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(Config{Driver: DriverSQLite}, Dependencies{})
	assert.Error(t, err)

	_, err = New(Config{Driver: "etcd"}, Dependencies{})
	assert.Error(t, err)
}
