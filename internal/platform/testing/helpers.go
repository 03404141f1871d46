// Package testing holds fixtures shared by package tests.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"sleepvoice-server-go/internal/platform/config"
	"sleepvoice-server-go/internal/platform/logging"
)

// SetupTestConfig returns the default config with every on-disk path moved
// under a per-test directory.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Level = "DEBUG"
	cfg.Log.Dir = filepath.Join(dir, "logs")
	cfg.Log.File = "test.log"
	cfg.Store.SQLite.Path = filepath.Join(dir, "sleepvoice.db")
	cfg.Audio.ClipsDir = filepath.Join(dir, "clips")
	return cfg
}

// SetupTestLogger builds a file-backed logger closed at test cleanup.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

// WriteConfig writes a YAML config file and returns its path.
func WriteConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
