package main

import (
	"context"
	"net/http"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/rating"
	"bookshelf/internal/shelf"
	"bookshelf/internal/store"

	"github.com/rs/zerolog"
)

type routerConfig struct {
	repos        store.Repositories
	jwtSecret    string
	logger       zerolog.Logger
	corsOrigins  []string
	rateLimiter  *httpx.RateLimitMiddleware
	maxBodyBytes int64
	enableHSTS   bool
}

func newRouter(cfg routerConfig) http.Handler {
	bookHandler := book.NewHTTPHandler(book.NewService(cfg.repos.Books))
	ratingHandler := rating.NewHTTPHandler(rating.NewService(cfg.repos.Ratings))
	shelfHandler := shelf.NewHTTPHandler(shelf.NewService(cfg.repos.Shelf))

	auth := httpx.AuthMiddleware(cfg.jwtSecret)
	optionalAuth := httpx.OptionalAuthMiddleware(cfg.jwtSecret)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok"}, nil)
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := cfg.repos.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Store not ready", nil)
			return
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready"}, nil)
	})

	router.Handle("GET /v1/books", optionalAuth(http.HandlerFunc(bookHandler.List)))
	router.Handle("GET /v1/books/{id}", optionalAuth(http.HandlerFunc(bookHandler.GetByID)))
	router.Handle("POST /v1/books", auth(http.HandlerFunc(bookHandler.Create)))
	router.Handle("PATCH /v1/books/{id}/rating", auth(http.HandlerFunc(ratingHandler.Rate)))

	router.Handle("GET /v1/shelf", auth(http.HandlerFunc(shelfHandler.List)))
	router.Handle("POST /v1/shelf", auth(http.HandlerFunc(shelfHandler.Add)))
	router.Handle("PATCH /v1/shelf/{bookId}", auth(http.HandlerFunc(shelfHandler.UpdateStatus)))
	router.Handle("DELETE /v1/shelf/{bookId}", auth(http.HandlerFunc(shelfHandler.Remove)))

	router.HandleFunc("/", httpx.NotFound)

	middlewares := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware(cfg.logger),
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.enableHSTS),
		httpx.CORSMiddleware(cfg.corsOrigins),
	}
	if cfg.rateLimiter != nil {
		middlewares = append(middlewares, cfg.rateLimiter.Middleware)
	}
	if cfg.maxBodyBytes > 0 {
		middlewares = append(middlewares, httpx.RequestSizeLimitMiddleware(cfg.maxBodyBytes))
	}
	return httpx.Chain(router, middlewares...)
}
