// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	xglog "github.com/bello-app/bellod/internal/log"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

const maxBodyBytes = 1 << 16

type saveVideoRequest struct {
	URI           string `json:"uri"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSaveVideo persists a completed capture. The one-video-per-day
// invariant is enforced here, where the mobile client used to enforce it
// before calling save.
func (s *Server) handleSaveVideo(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")

	var req saveVideoRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.URI == "" || !dateRe.MatchString(req.Date) || !timeRe.MatchString(req.Time) {
		writeError(w, http.StatusUnprocessableEntity, "uri, date (YYYY-MM-DD) and time (HH:MM) are required")
		return
	}

	if s.storage.HasVideoForDate(r.Context(), req.Date) {
		logger.Warn().
			Str("event", "video.save_rejected").
			Str("date", req.Date).
			Msg("video already exists for date")
		writeError(w, http.StatusConflict, "video already exists for this date")
		return
	}

	record := s.storage.SaveVideo(r.Context(), req.URI, req.Date, req.Time, req.ThumbnailPath)
	if record == nil {
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.storage.GetAllVideos(r.Context()))
}

func (s *Server) handleVideosByMonth(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		writeError(w, http.StatusUnprocessableEntity, "year and month (1-12) must be numeric")
		return
	}
	writeJSON(w, http.StatusOK, s.storage.GetVideosByMonth(r.Context(), year, month))
}

func (s *Server) handleHasVideoForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !dateRe.MatchString(date) {
		writeError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"exists": s.storage.HasVideoForDate(r.Context(), date),
	})
}

// handleDeleteVideo maps the storage layer's single-boolean contract onto
// HTTP: one generic failure shape, no distinguishing detail.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if !s.storage.DeleteVideo(r.Context(), chi.URLParam(r, "id")) {
		writeError(w, http.StatusConflict, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRecapCheck triggers the recap policy check without waiting for it.
func (s *Server) handleRecapCheck(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go s.recaps.CheckAndGenerateRecaps(ctx)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
