package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/middleware"
	"github.com/linkcut/linkcut/internal/models"
)

type PostHandler struct {
	baseURL    string
	urlService service.URLServiceIface
	logger     *zap.Logger
}

func NewPost(baseURL string, s service.URLServiceIface, l *zap.Logger) *PostHandler {
	return &PostHandler{
		baseURL:    baseURL,
		urlService: s,
		logger:     l,
	}
}

// HandleShorten creates a short URL for the authenticated owner.
func (h *PostHandler) HandleShorten(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := middleware.OwnerFromContext(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request models.ShortenRequest

	err := decodeJSONBody(res, req, &request)
	if err != nil {
		var mr *malformedRequest
		if errors.As(err, &mr) {
			http.Error(res, mr.msg, mr.status)
			return
		}
		h.logger.Error("cannot decode shorten request", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if request.URL == "" {
		http.Error(res, "url is required", http.StatusBadRequest)
		return
	}

	rec, err := h.urlService.Create(ctx, userID, request)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeTaken):
			http.Error(res, "Short code '"+request.CustomCode+"' is already taken", http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidCode):
			http.Error(res, "Short code is invalid", http.StatusBadRequest)
		case errors.Is(err, service.ErrGenerationExhausted):
			h.logger.Error("code generation exhausted", zap.Error(err))
			http.Error(res, "URL shortening service unavailable", http.StatusInternalServerError)
		default:
			h.logger.Error("cannot create short url", zap.Error(err))
			http.Error(res, "URL shortening service unavailable", http.StatusInternalServerError)
		}
		return
	}

	response, err := json.Marshal(models.ShortenResponse{
		ID:          rec.ID,
		OriginalURL: rec.OriginalURL,
		ShortCode:   rec.ShortCode,
		ShortURL:    h.baseURL + "/" + rec.ShortCode,
		CreatedAt:   rec.CreatedAt,
		ExpiresAt:   rec.ExpiresAt,
		ClickCount:  rec.ClickCount,
		IsActive:    rec.IsActive,
		QRCode:      rec.QRCode,
	})
	if err != nil {
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusCreated)

	if _, writeErr := res.Write(response); writeErr != nil {
		h.logger.Error("cannot write response", zap.Error(writeErr))
	}
}
