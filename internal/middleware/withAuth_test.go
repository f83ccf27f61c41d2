package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/mocks"
)

func TestWithAuth(t *testing.T) {
	t.Run("no token cookie", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockAuth := mocks.NewMockAuthIface(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/api/urls", nil)
		rec := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run without a token")
		})

		WithAuth(mockAuth)(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Result().StatusCode)
	})

	t.Run("valid token cookie", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockAuth := mocks.NewMockAuthIface(ctrl)
		cookie := &http.Cookie{Name: "token", Value: "valid-token"}

		mockAuth.EXPECT().
			ParseClaims(gomock.Any()).
			Return(&service.Claims{UserID: 42}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/urls", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()

		var gotUserID int64
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := OwnerFromContext(r.Context())
			require.True(t, ok)
			gotUserID = userID
			w.WriteHeader(http.StatusOK)
		})

		WithAuth(mockAuth)(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Result().StatusCode)
		assert.Equal(t, int64(42), gotUserID)
	})

	t.Run("invalid token cookie", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockAuth := mocks.NewMockAuthIface(ctrl)

		mockAuth.EXPECT().
			ParseClaims(gomock.Any()).
			Return(nil, errors.New("token is malformed"))

		req := httptest.NewRequest(http.MethodGet, "/api/urls", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "bad"})
		rec := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run with an invalid token")
		})

		WithAuth(mockAuth)(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Result().StatusCode)
	})
}
