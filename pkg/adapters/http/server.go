// Package http exposes the bot over HTTP: a message endpoint, server-sent
// events per conversation, health, info and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/corebot"
	"github.com/aretw0/corebot/internal/logging"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/sanitize"
)

// maxBodySize bounds the JSON body of an activity.
const maxBodySize = 64 << 10

// Bot is the part of corebot.Bot the server needs.
type Bot interface {
	Handle(ctx context.Context, act domain.Activity) (*domain.Outcome, error)
	Dialogs() []string
}

// Server holds the handlers.
type Server struct {
	Bot     Bot
	Streams *StreamManager

	logger    *slog.Logger
	metrics   http.Handler
	rateLimit RateLimitConfig
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one given to corebot.WithSink.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler overrides the /metrics handler (default: promhttp.Handler()).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRateLimit limits POST /api/messages per client IP. A zero limit disables it.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(s *Server) {
		s.rateLimit = cfg
	}
}

// NewHandler creates the HTTP handler for bot.
func NewHandler(bot Bot, opts ...Option) http.Handler {
	s := &Server{
		Bot:     bot,
		logger:  logging.NewNop(),
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Route("/api", func(r chi.Router) {
		r.With(RateLimit(s.rateLimit)).Post("/messages", s.PostMessage)
		r.Get("/dialogs", s.GetDialogs)
		r.Get("/conversations/{id}/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, domain.ErrInvalidActivity),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		status, code = http.StatusBadRequest, "invalid_activity"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "timeout"
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"path", r.URL.Path, "status", status, "err", err, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, status, errorResponse{Error: code, Detail: err.Error()})
}

// PostMessage handles POST /api/messages: one activity in, one outcome out.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var act domain.Activity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&act); err != nil {
		s.writeError(w, r, errors.Join(domain.ErrInvalidActivity, err))
		return
	}

	if act.Text != "" {
		clean, err := sanitize.Input(act.Text)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		act.Text = clean
	}

	start := time.Now()
	out, err := s.Bot.Handle(r.Context(), act)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Debug("turn served", "conversation_id", act.Conversation.ID, "status", out.Status,
		"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, out)
}

// GetDialogs handles GET /api/dialogs.
func (s *Server) GetDialogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"dialogs": s.Bot.Dialogs()})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "corebot-http",
		"version": corebot.Version,
	})
}
