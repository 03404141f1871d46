package store

import (
	"context"
	"sync"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/util/optional"
)

type sleepKey struct {
	account string
	night   string
}

type memoryStore struct {
	mu        sync.RWMutex
	alarms    map[model.DeviceKey][]model.Alarm
	settings  map[model.DeviceKey]model.SoundSetting
	sounds    map[model.DeviceKey][]model.Sound
	snapshots map[string]model.SensorSnapshot
	sleep     map[sleepKey]model.SleepStats
	prefs     map[string]model.Preferences
}

// NewMemory builds an in-process store. Values are copied on the way in and out.
func NewMemory() Store {
	return &memoryStore{
		alarms:    make(map[model.DeviceKey][]model.Alarm),
		settings:  make(map[model.DeviceKey]model.SoundSetting),
		sounds:    make(map[model.DeviceKey][]model.Sound),
		snapshots: make(map[string]model.SensorSnapshot),
		sleep:     make(map[sleepKey]model.SleepStats),
		prefs:     make(map[string]model.Preferences),
	}
}

func copyAlarms(in []model.Alarm) []model.Alarm {
	out := make([]model.Alarm, len(in))
	for i, a := range in {
		a.DaysOfWeek = append([]int(nil), a.DaysOfWeek...)
		out[i] = a
	}
	return out
}

func (s *memoryStore) GetAlarms(_ context.Context, key model.DeviceKey) ([]model.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAlarms(s.alarms[key]), nil
}

func (s *memoryStore) SetAlarms(_ context.Context, key model.DeviceKey, alarms []model.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms[key] = copyAlarms(alarms)
	return nil
}

func (s *memoryStore) GetSoundSetting(_ context.Context, key model.DeviceKey) (optional.Value[model.SoundSetting], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.settings[key]; ok {
		return optional.Some(v), nil
	}
	return optional.None[model.SoundSetting](), nil
}

func (s *memoryStore) SetSoundSetting(_ context.Context, key model.DeviceKey, setting model.SoundSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = setting
	return nil
}

func (s *memoryStore) ListSounds(_ context.Context, key model.DeviceKey) ([]model.Sound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Sound(nil), s.sounds[key]...), nil
}

func (s *memoryStore) SetSounds(_ context.Context, key model.DeviceKey, sounds []model.Sound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds[key] = append([]model.Sound(nil), sounds...)
	return nil
}

func (s *memoryStore) GetLatestSensorSnapshot(_ context.Context, deviceID string) (optional.Value[model.SensorSnapshot], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.snapshots[deviceID]; ok {
		return optional.Some(v), nil
	}
	return optional.None[model.SensorSnapshot](), nil
}

func (s *memoryStore) PutSensorSnapshot(_ context.Context, snapshot model.SensorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.snapshots[snapshot.DeviceID]; ok && prev.RecordedAt.After(snapshot.RecordedAt) {
		return nil
	}
	s.snapshots[snapshot.DeviceID] = snapshot
	return nil
}

func (s *memoryStore) GetSleepStats(_ context.Context, accountID, night string) (optional.Value[model.SleepStats], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.sleep[sleepKey{accountID, night}]; ok {
		return optional.Some(v), nil
	}
	return optional.None[model.SleepStats](), nil
}

func (s *memoryStore) PutSleepStats(_ context.Context, accountID string, stats model.SleepStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleep[sleepKey{accountID, stats.Night}] = stats
	return nil
}

func (s *memoryStore) GetPreferences(_ context.Context, accountID string) (optional.Value[model.Preferences], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.prefs[accountID]; ok {
		return optional.Some(v), nil
	}
	return optional.None[model.Preferences](), nil
}

func (s *memoryStore) SetPreferences(_ context.Context, accountID string, prefs model.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[accountID] = prefs
	return nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
