package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/middleware"
	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
)

const defaultListLimit = 100

type GetHandler struct {
	resolver   service.ResolverIface
	urlService service.URLServiceIface
	baseURL    string
	logger     *zap.Logger
}

func NewGet(resolver service.ResolverIface, s service.URLServiceIface, baseURL string, l *zap.Logger) *GetHandler {
	return &GetHandler{
		resolver:   resolver,
		urlService: s,
		baseURL:    baseURL,
		logger:     l,
	}
}

// HandleRedirect resolves a short code and redirects to the destination.
func (h *GetHandler) HandleRedirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	code := chi.URLParam(req, "code")

	dest, err := h.resolver.Resolve(ctx, code, req.UserAgent(), req.Referer())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			http.Error(res, "Short URL not found", http.StatusNotFound)
		case errors.Is(err, service.ErrGone):
			http.Error(res, "This URL has expired", http.StatusGone)
		default:
			h.logger.Error("cannot resolve short url", zap.String("code", code), zap.Error(err))
			http.Error(res, "Redirect service unavailable", http.StatusInternalServerError)
		}
		return
	}

	res.Header().Set("Location", dest)
	res.WriteHeader(http.StatusFound)
}

// HandleList returns one page of the owner's URLs.
func (h *GetHandler) HandleList(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := middleware.OwnerFromContext(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	skip := queryInt(req, "skip", 0)
	limit := queryInt(req, "limit", defaultListLimit)

	items, err := h.urlService.List(ctx, userID, skip, limit)
	if err != nil {
		h.logger.Error("cannot list urls", zap.Int64("user_id", userID), zap.Error(err))
		http.Error(res, "Could not load URLs", http.StatusInternalServerError)
		return
	}

	if len(items) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	response, err := json.Marshal(items)
	if err != nil {
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)

	if _, writeErr := res.Write(response); writeErr != nil {
		h.logger.Error("cannot write response", zap.Error(writeErr))
	}
}

// HandleAnalytics returns the click summary for a code owned by the caller.
func (h *GetHandler) HandleAnalytics(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := middleware.OwnerFromContext(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	code := chi.URLParam(req, "code")

	summary, err := h.urlService.Analytics(ctx, code, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(res, "URL not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cannot load analytics", zap.String("code", code), zap.Error(err))
		http.Error(res, "Analytics service unavailable", http.StatusInternalServerError)
		return
	}

	response, err := json.Marshal(summary)
	if err != nil {
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)

	if _, writeErr := res.Write(response); writeErr != nil {
		h.logger.Error("cannot write response", zap.Error(writeErr))
	}
}

// HandleQR returns the stored QR payload for an active short code.
func (h *GetHandler) HandleQR(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	code := chi.URLParam(req, "code")

	rec, err := h.urlService.QRByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(res, "URL not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cannot load qr code", zap.String("code", code), zap.Error(err))
		http.Error(res, "QR code service unavailable", http.StatusInternalServerError)
		return
	}

	response, err := json.Marshal(models.QRResponse{
		ShortCode: code,
		QRCode:    rec.QRCode,
		ShortURL:  h.baseURL + "/" + code,
	})
	if err != nil {
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)

	if _, writeErr := res.Write(response); writeErr != nil {
		h.logger.Error("cannot write response", zap.Error(writeErr))
	}
}

// PingDB reports store health.
func (h *GetHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	if err := h.urlService.PingContext(ctx); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func queryInt(req *http.Request, name string, fallback int) int {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}

	return v
}
