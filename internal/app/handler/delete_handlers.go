package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/middleware"
	"github.com/linkcut/linkcut/internal/models"
	"github.com/linkcut/linkcut/internal/repository"
)

type DeleteHandler struct {
	urlService service.URLServiceIface
	logger     *zap.Logger
}

func NewDelete(s service.URLServiceIface, l *zap.Logger) *DeleteHandler {
	return &DeleteHandler{
		urlService: s,
		logger:     l,
	}
}

// HandleDelete soft-deletes the owner's URL and reports the retention
// deadline. A second delete of the same code observes 404.
func (h *DeleteHandler) HandleDelete(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := middleware.OwnerFromContext(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	code := chi.URLParam(req, "code")

	backupUntil, err := h.urlService.Delete(ctx, code, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(res, "URL not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cannot delete short url", zap.String("code", code), zap.Error(err))
		http.Error(res, "Delete operation failed", http.StatusInternalServerError)
		return
	}

	response, err := json.Marshal(models.DeleteResponse{
		Message:     "URL deleted successfully",
		BackupUntil: backupUntil.Format(time.RFC3339),
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
