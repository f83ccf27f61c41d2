package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/cache"
	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
	"github.com/linkcut/linkcut/internal/storage"
	"github.com/linkcut/linkcut/internal/worker"
)

const testBaseURL = "http://localhost:8080"

// newTestServer wires the full stack on the in-memory store and cache, with
// the click worker running.
func newTestServer(t *testing.T) (*httptest.Server, *http.Cookie) {
	t.Helper()

	log := zap.NewNop()
	store := storage.CreateMemoryStore()
	c := cache.NewMemory()

	clickWorker := worker.NewClickWorker(log, store, c)
	go clickWorker.Run()

	urlService := service.NewURL(store, c, nil, log, testBaseURL)
	resolver := service.NewResolver(store, c, log, clickWorker.GetInChannel())
	auth := service.NewAuth()

	token, err := auth.BuildJWTString(42)
	require.NoError(t, err)

	srv := httptest.NewServer(Init(resolver, urlService, auth, testBaseURL, log))
	t.Cleanup(srv.Close)

	return srv, &http.Cookie{Name: "token", Value: token}
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, cookie *http.Cookie) *http.Response {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != "" {
		reqBody = bytes.NewBufferString(body)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestShortenRedirectDeleteLifecycle(t *testing.T) {
	srv, cookie := newTestServer(t)
	client := srv.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	// Create.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten",
		`{"url":"https://example.com/page"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.ShortenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	require.Len(t, created.ShortCode, 6)
	assert.Equal(t, testBaseURL+"/"+created.ShortCode, created.ShortURL)
	assert.True(t, created.IsActive)

	// Re-submitting the same destination returns the same record.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten",
		`{"url":"https://example.com/page"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var again models.ShortenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&again))
	resp.Body.Close()
	assert.Equal(t, created.ShortCode, again.ShortCode)

	// Redirect.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/"+created.ShortCode, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/page", resp.Header.Get("Location"))
	resp.Body.Close()

	// The click lands asynchronously.
	require.Eventually(t, func() bool {
		resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/analytics/"+created.ShortCode, "", cookie)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var summary models.AnalyticsResponse
		if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
			return false
		}
		return summary.TotalClicks == 1 && len(summary.ClickHistory) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Delete reports the retention deadline.
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/urls/"+created.ShortCode, "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted models.DeleteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	resp.Body.Close()

	backupUntil, err := time.Parse(time.RFC3339, deleted.BackupUntil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(repository.BackupRetention), backupUntil, time.Minute)

	// The code stops resolving once its cache entry is dropped.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/"+created.ShortCode, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Second delete observes the record is already gone.
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/urls/"+created.ShortCode, "", cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCustomCodeLifecycle(t *testing.T) {
	srv, cookie := newTestServer(t)
	client := srv.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten",
		`{"url":"https://example.com/a","custom_code":"promo"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// An active custom code cannot be claimed twice.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten",
		`{"url":"https://example.com/b","custom_code":"promo"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// After a soft delete the code is free again.
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/urls/promo", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten",
		`{"url":"https://example.com/b","custom_code":"promo"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/promo", "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/b", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	client := srv.Client()

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/shorten"},
		{http.MethodGet, "/api/urls"},
		{http.MethodDelete, "/api/urls/abc123"},
		{http.MethodGet, "/api/analytics/abc123"},
	} {
		resp := doJSON(t, client, route.method, srv.URL+route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
		resp.Body.Close()
	}
}

func TestListPagination(t *testing.T) {
	srv, cookie := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/urls", "", cookie)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/shorten", `{"url":"`+u+`"}`, cookie)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/urls?skip=1&limit=2", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []models.URLListItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	resp.Body.Close()

	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/2", items[0].OriginalURL)
	assert.Equal(t, "https://example.com/1", items[1].OriginalURL)
}

func TestRootAndUnknownRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	client := srv.Client()

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/abc123", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}
