// Package models defines the persistent records and the request/response
// data structures used by the URL shortener service.
package models

import "time"

// URLRecord is the authoritative representation of a shortened URL.
// At most one active record may exist per short code; soft-deleted
// records keep their code until backup_until elapses and may be
// superseded by a new active record with the same code.
type URLRecord struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	ClickCount  int64      `json:"click_count"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	BackupUntil *time.Time `json:"backup_until,omitempty"`
	QRCode      string     `json:"qr_code,omitempty"`
	UserID      int64      `json:"user_id"`
}

// ClickEvent is a single recorded redirect. Events are append-only.
type ClickEvent struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	UserAgent string    `json:"user_agent"`
	Referer   string    `json:"referer"`
	ClickedAt time.Time `json:"clicked_at"`
}
