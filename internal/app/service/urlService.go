// Package service contains the core orchestration of the URL shortener:
// creation with idempotency and code allocation, the redirect resolver, the
// soft-delete lifecycle, and cached list/analytics reads.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/cache"
	"github.com/linkcut/linkcut/internal/generator"
	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
)

// maxGenerateAttempts bounds the random-code retry loop. Collisions in a
// 62^6 space are rare; hitting the cap means something is wrong and the
// caller gets ErrGenerationExhausted instead of an unbounded loop.
const maxGenerateAttempts = 5

// clickHistoryLimit caps how many click events an analytics summary carries.
const clickHistoryLimit = 100

// URLService orchestrates the store, cache, generator, and QR renderer.
// The cache is advisory throughout: its failures are logged and the request
// proceeds against the store.
type URLService struct {
	store     Store
	cache     cache.Cache
	generator *generator.CodeGenerator
	qr        QRRenderer
	logger    *zap.Logger
	baseURL   string
}

func NewURL(store Store, c cache.Cache, qr QRRenderer, logger *zap.Logger, baseURL string) *URLService {
	return &URLService{
		store:     store,
		cache:     c,
		generator: generator.New(),
		qr:        qr,
		logger:    logger,
		baseURL:   baseURL,
	}
}

// ShortURL returns the public URL for a code.
func (s *URLService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

func (s *URLService) PingContext(ctx context.Context) error {
	return s.store.PingContext(ctx)
}

// Create shortens a destination URL for an owner. Creation is idempotent per
// (owner, destination) while an active record exists: re-submitting the same
// destination returns the existing record. Custom codes fail with
// ErrCodeTaken when an active record already uses them; generated codes are
// retried a bounded number of times against insert races.
func (s *URLService) Create(ctx context.Context, userID int64, req models.ShortenRequest) (*models.URLRecord, error) {
	existing, err := s.store.FindActiveByDestination(ctx, userID, req.URL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}

	var rec *models.URLRecord
	if req.CustomCode != "" {
		rec, err = s.createWithCustomCode(ctx, userID, req.URL, req.CustomCode, expiresAt)
	} else {
		rec, err = s.createWithGeneratedCode(ctx, userID, req.URL, expiresAt)
	}
	if err != nil {
		return nil, err
	}

	// Invalidation runs after the store commit; a reader hitting the narrow
	// window in between sees a stale page for at most the list TTL.
	if cacheErr := s.cache.Set(ctx, cache.ShortKey(rec.ShortCode), rec.OriginalURL, cache.ShortTTL); cacheErr != nil {
		s.logger.Warn("cannot cache new short url", zap.String("code", rec.ShortCode), zap.Error(cacheErr))
	}
	if cacheErr := s.cache.DelByPrefix(ctx, cache.ListPrefix); cacheErr != nil {
		s.logger.Warn("cannot invalidate url lists", zap.Error(cacheErr))
	}

	return rec, nil
}

func (s *URLService) createWithCustomCode(ctx context.Context, userID int64, originalURL, code string, expiresAt *time.Time) (*models.URLRecord, error) {
	if !generator.IsValidCustom(code) {
		return nil, ErrInvalidCode
	}

	// Collision with an active code is user-facing; a soft-deleted code may
	// be reused.
	_, err := s.store.FindActiveByCode(ctx, code)
	if err == nil {
		return nil, ErrCodeTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	rec, err := s.store.Insert(ctx, models.URLRecord{
		OriginalURL: originalURL,
		ShortCode:   code,
		ExpiresAt:   expiresAt,
		QRCode:      s.renderQR(code),
		UserID:      userID,
	})
	if errors.Is(err, repository.ErrDuplicateCode) {
		// Lost the race against a concurrent claim of the same custom code.
		return nil, ErrCodeTaken
	}

	return rec, err
}

func (s *URLService) createWithGeneratedCode(ctx context.Context, userID int64, originalURL string, expiresAt *time.Time) (*models.URLRecord, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := s.generator.Generate()

		rec, err := s.store.Insert(ctx, models.URLRecord{
			OriginalURL: originalURL,
			ShortCode:   code,
			ExpiresAt:   expiresAt,
			QRCode:      s.renderQR(code),
			UserID:      userID,
		})
		if errors.Is(err, repository.ErrDuplicateCode) {
			s.logger.Info("generated code collided, retrying", zap.String("code", code))
			continue
		}

		return rec, err
	}

	return nil, ErrGenerationExhausted
}

// renderQR is best-effort: a rendering failure leaves the record without a
// QR payload and never fails the create.
func (s *URLService) renderQR(code string) string {
	if s.qr == nil {
		return ""
	}

	payload, err := s.qr.Render(s.ShortURL(code))
	if err != nil {
		s.logger.Warn("cannot render qr code", zap.String("code", code), zap.Error(err))
		return ""
	}

	return payload
}

// List returns one page of the owner's active URLs, newest first, through
// the urls_list cache.
func (s *URLService) List(ctx context.Context, userID int64, skip, limit int) ([]models.URLListItem, error) {
	key := cache.ListKey(userID, skip, limit)

	if val, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cannot read url list cache", zap.Error(err))
	} else if ok {
		var items []models.URLListItem
		if err := json.Unmarshal([]byte(val), &items); err == nil {
			return items, nil
		}
		s.logger.Warn("dropping unreadable url list cache entry", zap.String("key", key))
	}

	records, err := s.store.ListByOwner(ctx, userID, skip, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.URLListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.URLListItem{
			ID:          rec.ID,
			OriginalURL: rec.OriginalURL,
			ShortCode:   rec.ShortCode,
			ShortURL:    s.ShortURL(rec.ShortCode),
			CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
			ClickCount:  rec.ClickCount,
			QRCode:      rec.QRCode,
		})
	}

	if payload, err := json.Marshal(items); err == nil {
		if cacheErr := s.cache.Set(ctx, key, string(payload), cache.ListTTL); cacheErr != nil {
			s.logger.Warn("cannot cache url list", zap.Error(cacheErr))
		}
	}

	return items, nil
}

// Delete soft-deletes the owner's record for the code and returns the
// retention deadline. The record stays in the store until backup_until
// elapses; only the cache entries derived from it are dropped here.
func (s *URLService) Delete(ctx context.Context, code string, userID int64) (time.Time, error) {
	backupUntil, err := s.store.SoftDelete(ctx, code, userID)
	if err != nil {
		return time.Time{}, err
	}

	if cacheErr := s.cache.Del(ctx, cache.ShortKey(code)); cacheErr != nil {
		s.logger.Warn("cannot drop cached short url", zap.String("code", code), zap.Error(cacheErr))
	}
	if cacheErr := s.cache.DelByPrefix(ctx, cache.ListPrefix); cacheErr != nil {
		s.logger.Warn("cannot invalidate url lists", zap.Error(cacheErr))
	}

	return backupUntil, nil
}

// Analytics returns the click summary for a code owned by the user, through
// the analytics cache.
func (s *URLService) Analytics(ctx context.Context, code string, userID int64) (*models.AnalyticsResponse, error) {
	rec, err := s.store.FindByCodeAndOwner(ctx, code, userID)
	if err != nil {
		return nil, err
	}

	key := cache.AnalyticsKey(code)

	if val, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cannot read analytics cache", zap.Error(err))
	} else if ok {
		var resp models.AnalyticsResponse
		if err := json.Unmarshal([]byte(val), &resp); err == nil {
			return &resp, nil
		}
		s.logger.Warn("dropping unreadable analytics cache entry", zap.String("key", key))
	}

	events, err := s.store.ListClicks(ctx, code, clickHistoryLimit)
	if err != nil {
		return nil, err
	}

	history := make([]models.ClickEntry, 0, len(events))
	for _, ev := range events {
		entry := models.ClickEntry{
			Timestamp: ev.ClickedAt.Format(time.RFC3339),
			UserAgent: ev.UserAgent,
			Referer:   ev.Referer,
		}
		if entry.UserAgent == "" {
			entry.UserAgent = "Unknown"
		}
		if entry.Referer == "" {
			entry.Referer = "Direct"
		}
		history = append(history, entry)
	}

	resp := &models.AnalyticsResponse{
		ShortCode:    code,
		TotalClicks:  rec.ClickCount,
		ClickHistory: history,
	}

	if payload, err := json.Marshal(resp); err == nil {
		if cacheErr := s.cache.Set(ctx, key, string(payload), cache.AnalyticsTTL); cacheErr != nil {
			s.logger.Warn("cannot cache analytics", zap.Error(cacheErr))
		}
	}

	return resp, nil
}

// QRByCode returns the active record holding the stored QR payload.
func (s *URLService) QRByCode(ctx context.Context, code string) (*models.URLRecord, error) {
	return s.store.FindActiveByCode(ctx, code)
}
