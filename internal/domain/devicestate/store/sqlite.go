package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/storage"
	"sleepvoice-server-go/internal/util/optional"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a store over an already migrated database.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, errors.New(errors.KindConfig, "devicestate.sqlite", "sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) putDocument(ctx context.Context, accountID, deviceID, kind string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "devicestate.sqlite.encode", kind, err)
	}
	doc := storage.DeviceDocument{
		AccountID: accountID,
		DeviceID:  deviceID,
		Kind:      kind,
		Value:     data,
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "device_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	return errors.Wrap(errors.KindStorage, "devicestate.sqlite.put", kind, err)
}

// getDocument decodes into out and reports whether a row existed.
func (s *sqliteStore) getDocument(ctx context.Context, accountID, deviceID, kind string, out any) (bool, error) {
	var doc storage.DeviceDocument
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND device_id = ? AND kind = ?", accountID, deviceID, kind).
		First(&doc).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.KindStorage, "devicestate.sqlite.get", kind, err)
	}
	if err := sonic.Unmarshal(doc.Value, out); err != nil {
		return false, errors.Wrap(errors.KindStorage, "devicestate.sqlite.decode", kind, err)
	}
	return true, nil
}

func (s *sqliteStore) GetAlarms(ctx context.Context, key model.DeviceKey) ([]model.Alarm, error) {
	var alarms []model.Alarm
	if _, err := s.getDocument(ctx, key.AccountID, key.DeviceID, storage.KindAlarms, &alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}

func (s *sqliteStore) SetAlarms(ctx context.Context, key model.DeviceKey, alarms []model.Alarm) error {
	if alarms == nil {
		alarms = []model.Alarm{}
	}
	return s.putDocument(ctx, key.AccountID, key.DeviceID, storage.KindAlarms, alarms)
}

func (s *sqliteStore) GetSoundSetting(ctx context.Context, key model.DeviceKey) (optional.Value[model.SoundSetting], error) {
	var setting model.SoundSetting
	found, err := s.getDocument(ctx, key.AccountID, key.DeviceID, storage.KindSoundSetting, &setting)
	if err != nil || !found {
		return optional.None[model.SoundSetting](), err
	}
	return optional.Some(setting), nil
}

func (s *sqliteStore) SetSoundSetting(ctx context.Context, key model.DeviceKey, setting model.SoundSetting) error {
	return s.putDocument(ctx, key.AccountID, key.DeviceID, storage.KindSoundSetting, setting)
}

func (s *sqliteStore) ListSounds(ctx context.Context, key model.DeviceKey) ([]model.Sound, error) {
	var sounds []model.Sound
	if _, err := s.getDocument(ctx, key.AccountID, key.DeviceID, storage.KindSounds, &sounds); err != nil {
		return nil, err
	}
	return sounds, nil
}

func (s *sqliteStore) SetSounds(ctx context.Context, key model.DeviceKey, sounds []model.Sound) error {
	if sounds == nil {
		sounds = []model.Sound{}
	}
	return s.putDocument(ctx, key.AccountID, key.DeviceID, storage.KindSounds, sounds)
}

func (s *sqliteStore) GetLatestSensorSnapshot(ctx context.Context, deviceID string) (optional.Value[model.SensorSnapshot], error) {
	var reading storage.SensorReading
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("recorded_at DESC").
		First(&reading).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return optional.None[model.SensorSnapshot](), nil
	}
	if err != nil {
		return optional.None[model.SensorSnapshot](), errors.Wrap(errors.KindStorage, "devicestate.sqlite.sensor", deviceID, err)
	}
	var snapshot model.SensorSnapshot
	if err := sonic.Unmarshal(reading.Value, &snapshot); err != nil {
		return optional.None[model.SensorSnapshot](), errors.Wrap(errors.KindStorage, "devicestate.sqlite.sensor_decode", deviceID, err)
	}
	return optional.Some(snapshot), nil
}

func (s *sqliteStore) PutSensorSnapshot(ctx context.Context, snapshot model.SensorSnapshot) error {
	snapshot.RecordedAt = snapshot.RecordedAt.UTC()
	data, err := sonic.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "devicestate.sqlite.sensor_encode", snapshot.DeviceID, err)
	}
	reading := storage.SensorReading{
		DeviceID:   snapshot.DeviceID,
		RecordedAt: snapshot.RecordedAt,
		Value:      data,
	}
	return errors.Wrap(errors.KindStorage, "devicestate.sqlite.sensor_put", snapshot.DeviceID,
		s.db.WithContext(ctx).Create(&reading).Error)
}

func (s *sqliteStore) GetSleepStats(ctx context.Context, accountID, night string) (optional.Value[model.SleepStats], error) {
	var record storage.SleepRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND night = ?", accountID, night).
		First(&record).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return optional.None[model.SleepStats](), nil
	}
	if err != nil {
		return optional.None[model.SleepStats](), errors.Wrap(errors.KindStorage, "devicestate.sqlite.sleep", accountID, err)
	}
	var stats model.SleepStats
	if err := sonic.Unmarshal(record.Value, &stats); err != nil {
		return optional.None[model.SleepStats](), errors.Wrap(errors.KindStorage, "devicestate.sqlite.sleep_decode", accountID, err)
	}
	return optional.Some(stats), nil
}

func (s *sqliteStore) PutSleepStats(ctx context.Context, accountID string, stats model.SleepStats) error {
	data, err := sonic.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "devicestate.sqlite.sleep_encode", accountID, err)
	}
	record := storage.SleepRecord{
		AccountID: accountID,
		Night:     stats.Night,
		Value:     data,
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "night"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	return errors.Wrap(errors.KindStorage, "devicestate.sqlite.sleep_put", accountID, err)
}

func (s *sqliteStore) GetPreferences(ctx context.Context, accountID string) (optional.Value[model.Preferences], error) {
	var prefs model.Preferences
	found, err := s.getDocument(ctx, accountID, "", storage.KindPreferences, &prefs)
	if err != nil || !found {
		return optional.None[model.Preferences](), err
	}
	return optional.Some(prefs), nil
}

func (s *sqliteStore) SetPreferences(ctx context.Context, accountID string, prefs model.Preferences) error {
	return s.putDocument(ctx, accountID, "", storage.KindPreferences, prefs)
}

// Close leaves the shared database handle open; its owner closes it.
func (s *sqliteStore) Close(context.Context) error {
	return nil
}
