package migrations

import (
	"gorm.io/gorm"
)

// Migration001DeviceState creates the device-state tables.
type Migration001DeviceState struct{}

func (m *Migration001DeviceState) Version() string {
	return "001_device_state"
}

func (m *Migration001DeviceState) Description() string {
	return "Create device documents, sensor readings and sleep records"
}

func (m *Migration001DeviceState) Up(db *gorm.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS device_documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id VARCHAR(64) NOT NULL,
			device_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			value JSON NOT NULL,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_device_documents_key ON device_documents(account_id, device_id, kind)`,
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id VARCHAR(64) NOT NULL,
			recorded_at DATETIME NOT NULL,
			value JSON NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_device ON sensor_readings(device_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS sleep_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id VARCHAR(64) NOT NULL,
			night VARCHAR(10) NOT NULL,
			value JSON NOT NULL,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sleep_records_night ON sleep_records(account_id, night)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration001DeviceState) Down(db *gorm.DB) error {
	for _, table := range []string{"sleep_records", "sensor_readings", "device_documents"} {
		if err := db.Migrator().DropTable(table); err != nil {
			return err
		}
	}
	return nil
}
