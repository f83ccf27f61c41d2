// Package repository implements the durable URL store on top of PostgreSQL.
// It is the sole authority on record correctness; every mutation is a single
// statement or a single transaction so concurrent requests never need a
// read-modify-write cycle across the network.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/models"
)

// ErrNotFound is returned when no record matches the requested code/owner.
var ErrNotFound = errors.New("url not found")

// ErrDuplicateCode is returned when an insert loses the race on the unique
// active-code constraint. Callers retry with a freshly generated code.
var ErrDuplicateCode = errors.New("short code already exists")

// BackupRetention is how long a soft-deleted record is kept before it may be
// physically purged (purge itself happens outside this service).
const BackupRetention = 48 * time.Hour

// InitDB opens the database and creates the schema if needed.
// The partial unique index enforces at most one active record per short
// code while leaving soft-deleted codes free for reuse.
func InitDB(dsn string, logger *zap.Logger) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);
	CREATE TABLE IF NOT EXISTS urls (
		id BIGSERIAL PRIMARY KEY,
		original_url TEXT NOT NULL,
		short_code VARCHAR(10) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		expires_at TIMESTAMP,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		click_count BIGINT NOT NULL DEFAULT 0,
		deleted_at TIMESTAMP,
		backup_until TIMESTAMP,
		qr_code TEXT,
		user_id BIGINT NOT NULL REFERENCES users(id)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS urls_short_code_active_idx
		ON urls (short_code) WHERE is_active;
	CREATE INDEX IF NOT EXISTS urls_user_id_idx ON urls (user_id);
	CREATE TABLE IF NOT EXISTS clicks (
		id BIGSERIAL PRIMARY KEY,
		short_code VARCHAR(10) NOT NULL,
		user_agent TEXT,
		referer TEXT,
		clicked_at TIMESTAMP NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS clicks_short_code_idx ON clicks (short_code);`

	if _, err := db.Exec(schema); err != nil {
		logger.Fatal("cannot create schema", zap.Error(err))
	}

	return db
}

// URLRepository provides CRUD access to url and click records.
type URLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateURLRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:     db,
		logger: logger,
	}
}

const urlColumns = `id, original_url, short_code, created_at, expires_at, is_active, click_count, deleted_at, backup_until, qr_code, user_id`

func scanURL(row *sql.Row) (*models.URLRecord, error) {
	var (
		r           models.URLRecord
		expiresAt   sql.NullTime
		deletedAt   sql.NullTime
		backupUntil sql.NullTime
		qrCode      sql.NullString
	)

	err := row.Scan(&r.ID, &r.OriginalURL, &r.ShortCode, &r.CreatedAt, &expiresAt,
		&r.IsActive, &r.ClickCount, &deletedAt, &backupUntil, &qrCode, &r.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if expiresAt.Valid {
		r.ExpiresAt = &expiresAt.Time
	}
	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Time
	}
	if backupUntil.Valid {
		r.BackupUntil = &backupUntil.Time
	}
	r.QRCode = qrCode.String

	return &r, nil
}

// FindActiveByDestination returns the owner's active record for a destination
// URL, enabling idempotent creation.
func (r *URLRepository) FindActiveByDestination(ctx context.Context, userID int64, originalURL string) (*models.URLRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE user_id = $1 AND original_url = $2 AND is_active LIMIT 1;`,
		userID, originalURL,
	)

	return scanURL(row)
}

// FindActiveByCode returns the active record for a short code. Expiry is not
// evaluated here; the resolver decides between NotFound and Gone.
func (r *URLRepository) FindActiveByCode(ctx context.Context, code string) (*models.URLRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE short_code = $1 AND is_active LIMIT 1;`,
		code,
	)

	return scanURL(row)
}

// FindByCodeAndOwner returns the most recent record with the given code owned
// by the user, regardless of active state. Used for analytics access checks.
func (r *URLRepository) FindByCodeAndOwner(ctx context.Context, code string, userID int64) (*models.URLRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE short_code = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT 1;`,
		code, userID,
	)

	return scanURL(row)
}

// Insert creates a new active record. A concurrent insert that wins the race
// on the active-code index surfaces as ErrDuplicateCode.
func (r *URLRepository) Insert(ctx context.Context, rec models.URLRecord) (*models.URLRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO urls (original_url, short_code, expires_at, qr_code, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, is_active, click_count;`,
		rec.OriginalURL, rec.ShortCode, nullTime(rec.ExpiresAt), nullString(rec.QRCode), rec.UserID,
	)

	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.IsActive, &rec.ClickCount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	return &rec, nil
}

// SoftDelete deactivates the owner's active record for the code and stamps
// the retention window. Returns ErrNotFound when no active row matches, which
// is also what the loser of two concurrent deletes observes.
func (r *URLRepository) SoftDelete(ctx context.Context, code string, userID int64) (time.Time, error) {
	now := time.Now()
	backupUntil := now.Add(BackupRetention)

	res, err := r.db.ExecContext(ctx,
		`UPDATE urls SET is_active = FALSE, deleted_at = $3, backup_until = $4
		 WHERE short_code = $1 AND user_id = $2 AND is_active;`,
		code, userID, now, backupUntil,
	)
	if err != nil {
		return time.Time{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, err
	}
	if affected == 0 {
		return time.Time{}, ErrNotFound
	}

	return backupUntil, nil
}

// IncrementClickAndLog bumps the click counter and appends a click event in
// one transaction. The counter update targets the most recent record with the
// code so a click racing a soft delete still lands somewhere sensible.
func (r *URLRepository) IncrementClickAndLog(ctx context.Context, code, userAgent, referer string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE urls SET click_count = click_count + 1
		 WHERE id = (SELECT id FROM urls WHERE short_code = $1 ORDER BY created_at DESC LIMIT 1);`,
		code,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO clicks (short_code, user_agent, referer, clicked_at) VALUES ($1, $2, $3, $4);`,
		code, userAgent, referer, at,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ListByOwner returns the owner's active records, newest first.
func (r *URLRepository) ListByOwner(ctx context.Context, userID int64, skip, limit int) ([]models.URLRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+urlColumns+` FROM urls WHERE user_id = $1 AND is_active
		 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`,
		userID, skip, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.URLRecord, 0)

	for rows.Next() {
		var (
			rec         models.URLRecord
			expiresAt   sql.NullTime
			deletedAt   sql.NullTime
			backupUntil sql.NullTime
			qrCode      sql.NullString
		)

		err = rows.Scan(&rec.ID, &rec.OriginalURL, &rec.ShortCode, &rec.CreatedAt, &expiresAt,
			&rec.IsActive, &rec.ClickCount, &deletedAt, &backupUntil, &qrCode, &rec.UserID)
		if err != nil {
			return nil, err
		}

		if expiresAt.Valid {
			rec.ExpiresAt = &expiresAt.Time
		}
		if deletedAt.Valid {
			rec.DeletedAt = &deletedAt.Time
		}
		if backupUntil.Valid {
			rec.BackupUntil = &backupUntil.Time
		}
		rec.QRCode = qrCode.String

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ListClicks returns the most recent click events for a code, newest first.
func (r *URLRepository) ListClicks(ctx context.Context, code string, limit int) ([]models.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, short_code, user_agent, referer, clicked_at FROM clicks
		 WHERE short_code = $1 ORDER BY clicked_at DESC LIMIT $2;`,
		code, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.ClickEvent, 0)

	for rows.Next() {
		var (
			ev        models.ClickEvent
			userAgent sql.NullString
			referer   sql.NullString
		)

		err = rows.Scan(&ev.ID, &ev.ShortCode, &userAgent, &referer, &ev.ClickedAt)
		if err != nil {
			return nil, err
		}

		ev.UserAgent = userAgent.String
		ev.Referer = referer.String

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *URLRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
