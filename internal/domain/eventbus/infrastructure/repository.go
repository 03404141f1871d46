// Package infrastructure backs the dispatch journal with SQLite.
package infrastructure

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/storage"
)

const maxFindLimit = 500

type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository returns a journal backed by db.
func NewJournalRepository(db *gorm.DB) repository.JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Store(ctx context.Context, entry repository.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	record := &storage.DispatchRecord{
		AccountID: entry.AccountID,
		DeviceID:  entry.DeviceID,
		Handler:   entry.Handler,
		Command:   entry.Command,
		Success:   entry.Success,
		Code:      entry.Code,
		ElapsedMS: entry.Elapsed.Milliseconds(),
		CreatedAt: createdAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "journal.store", "failed to store dispatch", err)
	}
	return nil
}

func (r *journalRepository) FindByDevice(ctx context.Context, deviceID string, limit int) ([]repository.Entry, error) {
	if limit <= 0 || limit > maxFindLimit {
		limit = maxFindLimit
	}
	var records []storage.DispatchRecord
	if err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.find.device", "failed to find dispatches by device", err)
	}
	return toEntries(records), nil
}

func (r *journalRepository) FindByTimeRange(ctx context.Context, start, end time.Time) ([]repository.Entry, error) {
	var records []storage.DispatchRecord
	if err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", start.UTC(), end.UTC()).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.find.time", "failed to find dispatches by time range", err)
	}
	return toEntries(records), nil
}

func (r *journalRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&storage.DispatchRecord{})
	if res.Error != nil {
		return 0, errors.Wrap(errors.KindStorage, "journal.delete.old", "failed to delete old dispatches", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *journalRepository) HandlerStats(ctx context.Context, since time.Time) (map[string]int64, error) {
	var stats []struct {
		Handler string
		Count   int64
	}
	if err := r.db.WithContext(ctx).
		Model(&storage.DispatchRecord{}).
		Select("handler, count(*) as count").
		Where("created_at >= ?", since.UTC()).
		Group("handler").
		Scan(&stats).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.stats", "failed to get handler stats", err)
	}

	result := make(map[string]int64, len(stats))
	for _, stat := range stats {
		result[stat.Handler] = stat.Count
	}
	return result, nil
}

func toEntries(records []storage.DispatchRecord) []repository.Entry {
	entries := make([]repository.Entry, len(records))
	for i, rec := range records {
		entries[i] = repository.Entry{
			ID:        strconv.FormatUint(uint64(rec.ID), 10),
			AccountID: rec.AccountID,
			DeviceID:  rec.DeviceID,
			Handler:   rec.Handler,
			Command:   rec.Command,
			Success:   rec.Success,
			Code:      rec.Code,
			Elapsed:   time.Duration(rec.ElapsedMS) * time.Millisecond,
			CreatedAt: rec.CreatedAt,
		}
	}
	return entries
}
