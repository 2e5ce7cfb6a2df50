package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storyreel/internal/captions"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/store"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", RunCounts: map[string]int{}}
	if s.store != nil {
		resp.DBPath = s.store.Path()
		stats, err := s.store.RunStats(r.Context())
		if err != nil {
			s.internalError(w, r, "run stats", err)
			return
		}
		for status, count := range stats {
			resp.RunCounts[string(status)] = count
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			resp := ErrorResponse{Error: "validation failed"}
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := pipeline.PlannerOptions(s.cfg)
	if o := req.Options; o != nil {
		if o.MinWords != 0 {
			opts.MinWords = o.MinWords
		}
		if o.MaxWords != 0 {
			opts.MaxWords = o.MaxWords
		}
		if o.DisplaySeconds != 0 {
			opts.DisplaySeconds = o.DisplaySeconds
		}
	}
	frame := pipeline.Frame(s.cfg)
	if req.Width > 0 {
		frame.Width = req.Width
	}
	if req.Height > 0 {
		frame.Height = req.Height
	}
	title := pipeline.NormalizeTitle(req.Title, "", s.cfg.Captions.DefaultTitle, s.cfg.Captions.TitleCase, s.cfg.Captions.TitleMaxRunes)

	plan, err := captions.NewPlanner(opts).Plan(captions.Request{
		Narration:       req.Narration,
		DurationSeconds: *req.DurationSeconds,
		Frame:           frame,
		Title:           title,
	})
	if err != nil {
		var invalid *captions.InvalidDurationError
		if errors.As(err, &invalid) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.internalError(w, r, "plan captions", err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "srt") {
		w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := captions.WriteSRT(w, plan); err != nil {
			logging.WithContext(r.Context(), s.logger).Warn("write srt response failed", logging.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, FromPlan(plan))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunLimit)
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: FromRuns(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(run)})
}

func (s *Server) handleListCache(w http.ResponseWriter, r *http.Request) {
	stage := store.Stage(strings.TrimSpace(r.URL.Query().Get("stage")))
	artifacts, err := s.store.List(r.Context(), stage)
	if err != nil {
		s.internalError(w, r, "list cache", err)
		return
	}
	entries := make([]CacheEntry, 0, len(artifacts))
	for _, art := range artifacts {
		entries = append(entries, FromArtifact(art))
	}
	writeJSON(w, http.StatusOK, CacheListResponse{Entries: entries})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.WithContext(r.Context(), s.logger).Error("api request failed",
		logging.String("operation", op),
		logging.Error(err),
	)
	jsonError(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
