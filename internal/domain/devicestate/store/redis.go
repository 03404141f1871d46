package store

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed store. Values are sonic-encoded JSON with no expiry.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return nil, errors.New(errors.KindConfig, "devicestate.redis", "redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	timeout := cfg.Redis.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.KindStorage, "devicestate.redis.ping", "redis ping failed", err)
	}

	prefix := strings.TrimSuffix(cfg.Redis.Prefix, ":")
	if prefix == "" {
		prefix = "sleepvoice:state"
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *redisStore) put(ctx context.Context, key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "devicestate.redis.encode", key, err)
	}
	return errors.Wrap(errors.KindStorage, "devicestate.redis.set", key, s.client.Set(ctx, key, data, 0).Err())
}

func (s *redisStore) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.KindStorage, "devicestate.redis.get", key, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return false, errors.Wrap(errors.KindStorage, "devicestate.redis.decode", key, err)
	}
	return true, nil
}

func getOptional[T any](ctx context.Context, s *redisStore, key string) (optional.Value[T], error) {
	var v T
	found, err := s.get(ctx, key, &v)
	if err != nil || !found {
		return optional.None[T](), err
	}
	return optional.Some(v), nil
}

func (s *redisStore) GetAlarms(ctx context.Context, key model.DeviceKey) ([]model.Alarm, error) {
	var alarms []model.Alarm
	if _, err := s.get(ctx, s.key("alarms", key.AccountID, key.DeviceID), &alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}

func (s *redisStore) SetAlarms(ctx context.Context, key model.DeviceKey, alarms []model.Alarm) error {
	if alarms == nil {
		alarms = []model.Alarm{}
	}
	return s.put(ctx, s.key("alarms", key.AccountID, key.DeviceID), alarms)
}

func (s *redisStore) GetSoundSetting(ctx context.Context, key model.DeviceKey) (optional.Value[model.SoundSetting], error) {
	return getOptional[model.SoundSetting](ctx, s, s.key("sound_setting", key.AccountID, key.DeviceID))
}

func (s *redisStore) SetSoundSetting(ctx context.Context, key model.DeviceKey, setting model.SoundSetting) error {
	return s.put(ctx, s.key("sound_setting", key.AccountID, key.DeviceID), setting)
}

func (s *redisStore) ListSounds(ctx context.Context, key model.DeviceKey) ([]model.Sound, error) {
	var sounds []model.Sound
	if _, err := s.get(ctx, s.key("sounds", key.AccountID, key.DeviceID), &sounds); err != nil {
		return nil, err
	}
	return sounds, nil
}

func (s *redisStore) SetSounds(ctx context.Context, key model.DeviceKey, sounds []model.Sound) error {
	if sounds == nil {
		sounds = []model.Sound{}
	}
	return s.put(ctx, s.key("sounds", key.AccountID, key.DeviceID), sounds)
}

func (s *redisStore) GetLatestSensorSnapshot(ctx context.Context, deviceID string) (optional.Value[model.SensorSnapshot], error) {
	return getOptional[model.SensorSnapshot](ctx, s, s.key("sensors", deviceID))
}

// PutSensorSnapshot keeps only the newest reading per device.
func (s *redisStore) PutSensorSnapshot(ctx context.Context, snapshot model.SensorSnapshot) error {
	current, err := s.GetLatestSensorSnapshot(ctx, snapshot.DeviceID)
	if err != nil {
		return err
	}
	if prev, ok := current.Get(); ok && prev.RecordedAt.After(snapshot.RecordedAt) {
		return nil
	}
	return s.put(ctx, s.key("sensors", snapshot.DeviceID), snapshot)
}

func (s *redisStore) GetSleepStats(ctx context.Context, accountID, night string) (optional.Value[model.SleepStats], error) {
	return getOptional[model.SleepStats](ctx, s, s.key("sleep", accountID, night))
}

func (s *redisStore) PutSleepStats(ctx context.Context, accountID string, stats model.SleepStats) error {
	return s.put(ctx, s.key("sleep", accountID, stats.Night), stats)
}

func (s *redisStore) GetPreferences(ctx context.Context, accountID string) (optional.Value[model.Preferences], error) {
	return getOptional[model.Preferences](ctx, s, s.key("prefs", accountID))
}

func (s *redisStore) SetPreferences(ctx context.Context, accountID string, prefs model.Preferences) error {
	return s.put(ctx, s.key("prefs", accountID), prefs)
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
