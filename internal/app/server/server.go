// Package server assembles the chi router: public redirect and QR lookup,
// authenticated API routes, and the middleware chain.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkcut/linkcut/internal/app/handler"
	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/middleware"
)

func Init(resolver service.ResolverIface, urlService service.URLServiceIface, auth service.AuthIface, baseURL string, log *zap.Logger) *chi.Mux {
	postHandler := handler.NewPost(baseURL, urlService, log)
	getHandler := handler.NewGet(resolver, urlService, baseURL, log)
	deleteHandler := handler.NewDelete(urlService, log)

	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(log))

	r.Get("/ping", getHandler.PingDB)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.WithGzip)

		api.Get("/qr/{code}", getHandler.HandleQR)

		api.Group(func(private chi.Router) {
			private.Use(middleware.WithAuth(auth))

			private.Post("/shorten", postHandler.HandleShorten)
			private.Get("/urls", getHandler.HandleList)
			private.Delete("/urls/{code}", deleteHandler.HandleDelete)
			private.Get("/analytics/{code}", getHandler.HandleAnalytics)
		})
	})

	r.Get("/{code}", getHandler.HandleRedirect)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Short URL is required", http.StatusBadRequest)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}
