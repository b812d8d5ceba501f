// Package server exposes the edge service over HTTP: generation,
// history, health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carrycooldude/EdgeAIApp/internal/edge"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
)

type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type GenerateResponse struct {
	Text            string `json:"text"`
	Tier            string `json:"tier"`
	TokensGenerated int    `json:"tokens_generated"`
	DurationMS      int64  `json:"duration_ms"`
	Substituted     bool   `json:"substituted"`
}

type HealthResponse struct {
	Status         string   `json:"status"`
	Tiers          []string `json:"tiers"`
	SoftwareEngine bool     `json:"software_engine"`
	VocabSize      int      `json:"vocab_size"`
}

type Server struct {
	svc  *edge.Service
	mux  *http.ServeMux
	http *http.Server
}

func New(svc *edge.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	logger.Log.Info("http server starting", "addr", addr)
	return s.http.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.svc.Generate(r.Context(), edge.Request{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		if errors.Is(err, edge.ErrReleased) {
			http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
			return
		}
		logger.Log.Err("generate request failed", err)
		http.Error(w, "Generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GenerateResponse{
		Text:            res.Text,
		Tier:            res.Tier,
		TokensGenerated: res.TokensGenerated,
		DurationMS:      res.Duration.Milliseconds(),
		Substituted:     res.Substituted,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		logger.Log.Err("history request failed", err)
		http.Error(w, "History unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(entries) == 0 {
		w.Write([]byte("[]\n"))
		return
	}
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.svc.Initialize(r.Context()); err != nil {
		http.Error(w, "Service failed to initialize", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:         "ok",
		Tiers:          s.svc.Tiers(),
		SoftwareEngine: s.svc.SoftwareReady(),
		VocabSize:      s.svc.Config().VocabSize,
	})
}
