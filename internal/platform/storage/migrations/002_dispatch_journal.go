package migrations

import (
	"gorm.io/gorm"
)

// Migration002DispatchJournal creates the dispatch journal.
type Migration002DispatchJournal struct{}

func (m *Migration002DispatchJournal) Version() string {
	return "002_dispatch_journal"
}

func (m *Migration002DispatchJournal) Description() string {
	return "Create dispatch journal"
}

func (m *Migration002DispatchJournal) Up(db *gorm.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS dispatch_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id VARCHAR(64) NOT NULL,
			device_id VARCHAR(64) NOT NULL,
			handler VARCHAR(32) NOT NULL,
			command VARCHAR(64) NOT NULL,
			success BOOLEAN NOT NULL,
			code VARCHAR(32),
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatch_journal_device ON dispatch_journal(device_id, created_at)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration002DispatchJournal) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("dispatch_journal")
}
