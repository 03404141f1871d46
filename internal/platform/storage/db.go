package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/storage/migrations"
)

// MemoryDSN opens a private in-memory database, used by tests.
const MemoryDSN = "file::memory:"

// Open opens the SQLite database at path and runs all migrations. An empty
// path or MemoryDSN yields an in-memory database.
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = MemoryDSN
	}
	if dsn != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.mkdir", "failed to create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", fmt.Sprintf("failed to open database %s", dsn), err)
	}

	if dsn == MemoryDSN {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.pool", "failed to access connection pool", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	manager := NewMigrationManager(db)
	manager.AddMigration(&migrations.Migration001DeviceState{})
	manager.AddMigration(&migrations.Migration002DispatchJournal{})
	if err := manager.RunMigrations(); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
