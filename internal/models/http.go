package models

import "time"

// ShortenRequest represents a request to shorten a URL.
type ShortenRequest struct {
	// URL is the original destination to be shortened.
	URL string `json:"url"`

	// CustomCode, when set, is used instead of a generated code.
	CustomCode string `json:"custom_code,omitempty"`

	// ExpiresInDays, when positive, sets an expiry relative to now.
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

// ShortenResponse is returned after a successful shorten request.
type ShortenResponse struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClickCount  int64      `json:"click_count"`
	IsActive    bool       `json:"is_active"`
	QRCode      string     `json:"qr_code,omitempty"`
}

// URLListItem is a single entry in an owner's paginated URL list.
type URLListItem struct {
	ID          int64  `json:"id"`
	OriginalURL string `json:"original_url"`
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url"`
	CreatedAt   string `json:"created_at"`
	ClickCount  int64  `json:"click_count"`
	QRCode      string `json:"qr_code,omitempty"`
}

// DeleteResponse reports a completed soft delete and the retention deadline.
type DeleteResponse struct {
	Message     string `json:"message"`
	BackupUntil string `json:"backup_until"`
}

// ClickEntry is one row of a click history in an analytics response.
type ClickEntry struct {
	Timestamp string `json:"timestamp"`
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer"`
}

// AnalyticsResponse summarizes recorded clicks for a short code.
type AnalyticsResponse struct {
	ShortCode    string       `json:"short_code"`
	TotalClicks  int64        `json:"total_clicks"`
	ClickHistory []ClickEntry `json:"click_history"`
}

// QRResponse carries the stored QR payload for a short code.
type QRResponse struct {
	ShortCode string `json:"short_code"`
	QRCode    string `json:"qr_code"`
	ShortURL  string `json:"short_url"`
}
