// SPDX-License-Identifier: MIT

// Package api exposes the journal operations to the mobile client over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bello-app/bellod/internal/config"
	"github.com/bello-app/bellod/internal/journal"
	"github.com/bello-app/bellod/internal/recap"
)

// Server is the HTTP API server for the journal daemon.
type Server struct {
	cfg     config.Config
	storage *journal.Storage
	recaps  *recap.Generator
}

// New creates the API server around the storage service and recap generator.
func New(cfg config.Config, storage *journal.Storage, recaps *recap.Generator) *Server {
	return &Server{
		cfg:     cfg,
		storage: storage,
		recaps:  recaps,
	}
}

// Routes builds the chi router with all middleware and endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/videos", s.handleSaveVideo)
		r.Get("/videos", s.handleListVideos)
		r.Get("/videos/{year}/{month}", s.handleVideosByMonth)
		r.Get("/videos/day/{date}", s.handleHasVideoForDate)
		r.Delete("/videos/{id}", s.handleDeleteVideo)
		r.Post("/recaps/check", s.handleRecapCheck)
	})

	return r
}
