package store

import (
	"context"
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/util/optional"
)

// Store is the narrow device-state surface the handlers depend on. All calls
// may be remote and slow; callers bound them with a context deadline.
type Store interface {
	GetAlarms(ctx context.Context, key model.DeviceKey) ([]model.Alarm, error)
	// SetAlarms replaces the whole collection in one write.
	SetAlarms(ctx context.Context, key model.DeviceKey, alarms []model.Alarm) error

	GetSoundSetting(ctx context.Context, key model.DeviceKey) (optional.Value[model.SoundSetting], error)
	SetSoundSetting(ctx context.Context, key model.DeviceKey, setting model.SoundSetting) error
	ListSounds(ctx context.Context, key model.DeviceKey) ([]model.Sound, error)
	SetSounds(ctx context.Context, key model.DeviceKey, sounds []model.Sound) error

	GetLatestSensorSnapshot(ctx context.Context, deviceID string) (optional.Value[model.SensorSnapshot], error)
	PutSensorSnapshot(ctx context.Context, snapshot model.SensorSnapshot) error

	GetSleepStats(ctx context.Context, accountID, night string) (optional.Value[model.SleepStats], error)
	PutSleepStats(ctx context.Context, accountID string, stats model.SleepStats) error

	GetPreferences(ctx context.Context, accountID string) (optional.Value[model.Preferences], error)
	SetPreferences(ctx context.Context, accountID string, prefs model.Preferences) error

	Close(ctx context.Context) error
}

// Config describes the store selection parameters.
type Config struct {
	Driver string
	Redis  *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// DialTimeout bounds the startup ping.
	DialTimeout time.Duration
}
