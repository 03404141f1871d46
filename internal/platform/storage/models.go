package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Document kinds stored in device_documents.
const (
	KindAlarms       = "alarms"
	KindSoundSetting = "sound_setting"
	KindSounds       = "sounds"
	KindPreferences  = "preferences"
)

// DeviceDocument stores one JSON document per (account, device, kind).
// Account-level documents use an empty device id.
type DeviceDocument struct {
	ID        uint           `gorm:"primaryKey"`
	AccountID string         `gorm:"uniqueIndex:idx_device_documents_key;not null"`
	DeviceID  string         `gorm:"uniqueIndex:idx_device_documents_key;not null"`
	Kind      string         `gorm:"uniqueIndex:idx_device_documents_key;not null"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (DeviceDocument) TableName() string {
	return "device_documents"
}

// SensorReading is one room snapshot; the latest per device wins.
type SensorReading struct {
	ID         uint           `gorm:"primaryKey"`
	DeviceID   string         `gorm:"index:idx_sensor_readings_device;not null"`
	RecordedAt time.Time      `gorm:"index:idx_sensor_readings_device;not null"`
	Value      datatypes.JSON `gorm:"not null"`
}

func (SensorReading) TableName() string {
	return "sensor_readings"
}

// SleepRecord is one night of sleep statistics.
type SleepRecord struct {
	ID        uint           `gorm:"primaryKey"`
	AccountID string         `gorm:"uniqueIndex:idx_sleep_records_night;not null"`
	Night     string         `gorm:"uniqueIndex:idx_sleep_records_night;not null"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (SleepRecord) TableName() string {
	return "sleep_records"
}

// DispatchRecord is one journaled dispatch.
type DispatchRecord struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID string `gorm:"not null"`
	DeviceID  string `gorm:"index:idx_dispatch_journal_device;not null"`
	Handler   string `gorm:"not null"`
	Command   string `gorm:"not null"`
	Success   bool   `gorm:"not null"`
	Code      string
	ElapsedMS int64     `gorm:"column:elapsed_ms;not null"`
	CreatedAt time.Time `gorm:"index:idx_dispatch_journal_device;not null"`
}

func (DispatchRecord) TableName() string {
	return "dispatch_journal"
}
