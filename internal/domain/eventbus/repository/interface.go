// Package repository defines the dispatch journal store.
package repository

import (
	"context"
	"time"
)

// JournalRepository stores journaled dispatches.
type JournalRepository interface {
	// Store appends one entry.
	Store(ctx context.Context, entry Entry) error

	// FindByDevice returns the newest entries for a device, newest first.
	FindByDevice(ctx context.Context, deviceID string, limit int) ([]Entry, error)

	// FindByTimeRange returns entries created in [start, end], oldest first.
	FindByTimeRange(ctx context.Context, start, end time.Time) ([]Entry, error)

	// DeleteBefore drops entries older than before and reports how many.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)

	// HandlerStats counts entries per handler since the given instant.
	HandlerStats(ctx context.Context, since time.Time) (map[string]int64, error)
}

// Entry is one journaled dispatch.
type Entry struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	DeviceID  string        `json:"device_id"`
	Handler   string        `json:"handler"`
	Command   string        `json:"command"`
	Success   bool          `json:"success"`
	Code      string        `json:"code,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}
