// Package storage provides an in-memory implementation of the URL store.
// It mirrors the PostgreSQL repository's semantics, including the
// one-active-record-per-code constraint, and backs tests and runs without a
// configured database.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
)

type MemoryStore struct {
	mu          sync.Mutex
	nextID      int64
	nextClickID int64
	records     []models.URLRecord
	clicks      []models.ClickEvent
}

func CreateMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) FindActiveByDestination(ctx context.Context, userID int64, originalURL string) (*models.URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		r := m.records[i]
		if r.UserID == userID && r.OriginalURL == originalURL && r.IsActive {
			return &r, nil
		}
	}

	return nil, repository.ErrNotFound
}

func (m *MemoryStore) FindActiveByCode(ctx context.Context, code string) (*models.URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		r := m.records[i]
		if r.ShortCode == code && r.IsActive {
			return &r, nil
		}
	}

	return nil, repository.ErrNotFound
}

func (m *MemoryStore) FindByCodeAndOwner(ctx context.Context, code string, userID int64) (*models.URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Newest first, matching the repository's ORDER BY created_at DESC.
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.ShortCode == code && r.UserID == userID {
			return &r, nil
		}
	}

	return nil, repository.ErrNotFound
}

// Insert enforces the active-code uniqueness the repository gets from its
// partial unique index.
func (m *MemoryStore) Insert(ctx context.Context, rec models.URLRecord) (*models.URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ShortCode == rec.ShortCode && m.records[i].IsActive {
			return nil, repository.ErrDuplicateCode
		}
	}

	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	rec.IsActive = true
	rec.ClickCount = 0

	m.records = append(m.records, rec)

	return &rec, nil
}

func (m *MemoryStore) SoftDelete(ctx context.Context, code string, userID int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	backupUntil := now.Add(repository.BackupRetention)

	for i := range m.records {
		r := &m.records[i]
		if r.ShortCode == code && r.UserID == userID && r.IsActive {
			r.IsActive = false
			r.DeletedAt = &now
			r.BackupUntil = &backupUntil
			return backupUntil, nil
		}
	}

	return time.Time{}, repository.ErrNotFound
}

func (m *MemoryStore) IncrementClickAndLog(ctx context.Context, code, userAgent, referer string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].ShortCode == code {
			m.records[i].ClickCount++
			break
		}
	}

	m.nextClickID++
	m.clicks = append(m.clicks, models.ClickEvent{
		ID:        m.nextClickID,
		ShortCode: code,
		UserAgent: userAgent,
		Referer:   referer,
		ClickedAt: at,
	})

	return nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, userID int64, skip, limit int) ([]models.URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]models.URLRecord, 0)
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.UserID == userID && r.IsActive {
			matched = append(matched, r)
		}
	}

	if skip >= len(matched) {
		return []models.URLRecord{}, nil
	}

	matched = matched[skip:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

func (m *MemoryStore) ListClicks(ctx context.Context, code string, limit int) ([]models.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]models.ClickEvent, 0)
	for i := len(m.clicks) - 1; i >= 0 && len(events) < limit; i-- {
		if m.clicks[i].ShortCode == code {
			events = append(events, m.clicks[i])
		}
	}

	return events, nil
}

func (m *MemoryStore) PingContext(ctx context.Context) error {
	return nil
}
