package service

import (
	"context"
	"time"

	"github.com/linkcut/linkcut/internal/models"
)

// Store is the durable source of truth for URL and click records. Every
// mutation is atomic; concurrent writers are arbitrated by the database.
type Store interface {
	FindActiveByDestination(ctx context.Context, userID int64, originalURL string) (*models.URLRecord, error)
	FindActiveByCode(ctx context.Context, code string) (*models.URLRecord, error)
	FindByCodeAndOwner(ctx context.Context, code string, userID int64) (*models.URLRecord, error)
	Insert(ctx context.Context, rec models.URLRecord) (*models.URLRecord, error)
	SoftDelete(ctx context.Context, code string, userID int64) (time.Time, error)
	IncrementClickAndLog(ctx context.Context, code, userAgent, referer string, at time.Time) error
	ListByOwner(ctx context.Context, userID int64, skip, limit int) ([]models.URLRecord, error)
	ListClicks(ctx context.Context, code string, limit int) ([]models.ClickEvent, error)
	PingContext(ctx context.Context) error
}

// QRRenderer turns a fully-formed short URL into an opaque image payload.
type QRRenderer interface {
	Render(url string) (string, error)
}

// URLServiceIface is the handler-facing surface of the URL service.
type URLServiceIface interface {
	Create(ctx context.Context, userID int64, req models.ShortenRequest) (*models.URLRecord, error)
	List(ctx context.Context, userID int64, skip, limit int) ([]models.URLListItem, error)
	Delete(ctx context.Context, code string, userID int64) (time.Time, error)
	Analytics(ctx context.Context, code string, userID int64) (*models.AnalyticsResponse, error)
	QRByCode(ctx context.Context, code string) (*models.URLRecord, error)
	PingContext(ctx context.Context) error
}

// ResolverIface resolves short codes to destinations for redirects.
type ResolverIface interface {
	Resolve(ctx context.Context, code, userAgent, referer string) (string, error)
}
