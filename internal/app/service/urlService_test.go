package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/cache"
	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
	"github.com/linkcut/linkcut/internal/storage"
)

const baseURL = "http://localhost:8080"

func newTestService() (*URLService, *storage.MemoryStore, *cache.MemoryCache) {
	store := storage.CreateMemoryStore()
	c := cache.NewMemory()
	svc := NewURL(store, c, nil, zap.NewNop(), baseURL)
	return svc, store, c
}

func TestCreateGeneratesCode(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})

	require.NoError(t, err)
	assert.Len(t, rec.ShortCode, 6)
	assert.True(t, rec.IsActive)
	assert.Equal(t, int64(0), rec.ClickCount)
	assert.Equal(t, "https://example.com/page", rec.OriginalURL)

	// The destination is cached eagerly on creation.
	val, ok, err := c.Get(ctx, cache.ShortKey(rec.ShortCode))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/page", val)
}

func TestCreateIsIdempotentPerOwnerAndDestination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	second, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ShortCode, second.ShortCode)
}

func TestCreateAfterSoftDeleteProducesNewRecord(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, first.ShortCode, 42)
	require.NoError(t, err)

	second, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.ShortCode, second.ShortCode)
}

func TestCreateDifferentOwnersGetDifferentRecords(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	second, err := svc.Create(ctx, 43, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ShortCode, second.ShortCode)
}

func TestCreateWithCustomCode(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page", CustomCode: "mylink"})

	require.NoError(t, err)
	assert.Equal(t, "mylink", rec.ShortCode)
}

func TestCreateCustomCodeTaken(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/a", CustomCode: "mylink"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 43, models.ShortenRequest{URL: "https://example.com/b", CustomCode: "mylink"})
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestCreateCustomCodeReusableAfterSoftDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/a", CustomCode: "mylink"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "mylink", 42)
	require.NoError(t, err)

	rec, err := svc.Create(ctx, 43, models.ShortenRequest{URL: "https://example.com/b", CustomCode: "mylink"})
	require.NoError(t, err)
	assert.Equal(t, "mylink", rec.ShortCode)
}

func TestCreateInvalidCustomCode(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/a", CustomCode: "my link!"})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCreateWithExpiry(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page", ExpiresInDays: 7})

	require.NoError(t, err)
	require.NotNil(t, rec.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *rec.ExpiresAt, time.Second)
}

// duplicateStore always loses the insert race, exhausting the retry budget.
type duplicateStore struct {
	*storage.MemoryStore
}

func (d *duplicateStore) Insert(ctx context.Context, rec models.URLRecord) (*models.URLRecord, error) {
	return nil, repository.ErrDuplicateCode
}

func TestCreateGenerationExhausted(t *testing.T) {
	store := &duplicateStore{storage.CreateMemoryStore()}
	svc := NewURL(store, cache.NewMemory(), nil, zap.NewNop(), baseURL)

	_, err := svc.Create(context.Background(), 42, models.ShortenRequest{URL: "https://example.com/page"})

	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

type staticQR struct{}

func (staticQR) Render(url string) (string, error) {
	return "data:image/png;base64,payload-for-" + url, nil
}

func TestCreateStoresQRPayload(t *testing.T) {
	store := storage.CreateMemoryStore()
	svc := NewURL(store, cache.NewMemory(), staticQR{}, zap.NewNop(), baseURL)
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,payload-for-"+baseURL+"/"+rec.ShortCode, rec.QRCode)

	found, err := svc.QRByCode(ctx, rec.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, rec.QRCode, found.QRCode)
}

func TestDeleteReturnsBackupUntil(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	before := time.Now()
	backupUntil, err := svc.Delete(ctx, rec.ShortCode, 42)

	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(repository.BackupRetention), backupUntil, time.Second)

	// The cached destination is dropped with the record.
	_, ok, _ := c.Get(ctx, cache.ShortKey(rec.ShortCode))
	assert.False(t, ok)
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, rec.ShortCode, 42)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, rec.ShortCode, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListInvalidatedByCreate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/a"})
	require.NoError(t, err)

	page, err := svc.List(ctx, 42, 0, 100)
	require.NoError(t, err)
	require.Len(t, page, 1)

	// The cached page must not survive a second create.
	_, err = svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/b"})
	require.NoError(t, err)

	page, err = svc.List(ctx, 42, 0, 100)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "https://example.com/b", page[0].OriginalURL)
	assert.Equal(t, baseURL+"/"+page[0].ShortCode, page[0].ShortURL)
}

func TestListServedFromCache(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/a"})
	require.NoError(t, err)

	_, err = svc.List(ctx, 42, 0, 100)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, cache.ListKey(42, 0, 100))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAnalytics(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.IncrementClickAndLog(ctx, rec.ShortCode, "agent-a", "https://ref.example", now.Add(-time.Minute)))
	require.NoError(t, store.IncrementClickAndLog(ctx, rec.ShortCode, "", "", now))

	summary, err := svc.Analytics(ctx, rec.ShortCode, 42)

	require.NoError(t, err)
	assert.Equal(t, rec.ShortCode, summary.ShortCode)
	assert.Equal(t, int64(2), summary.TotalClicks)
	require.Len(t, summary.ClickHistory, 2)
	assert.Equal(t, "Unknown", summary.ClickHistory[0].UserAgent)
	assert.Equal(t, "Direct", summary.ClickHistory[0].Referer)
	assert.Equal(t, "agent-a", summary.ClickHistory[1].UserAgent)
}

func TestAnalyticsWrongOwner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	_, err = svc.Analytics(ctx, rec.ShortCode, 43)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentCreateProducesDistinctCodes(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
	)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			rec, err := svc.Create(ctx, 42, models.ShortenRequest{URL: fmt.Sprintf("https://example.com/%d", i)})
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			codes[rec.ShortCode] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, codes, 100)
}
