package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"browsegpt/internal/application/port/input"
	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

const (
	defaultMaxBodyBytes    = 1 << 20
	defaultShutdownTimeout = 10 * time.Second
	eventBuffer            = 32
)

type Config struct {
	Addr         string
	ServiceName  string
	MaxBodyBytes int64
	// AccessLogJSON selects JSON access logs; otherwise they are pretty-printed.
	AccessLogJSON   bool
	ShutdownTimeout time.Duration
}

func DefaultConfig(addr string) Config {
	return Config{
		Addr:            addr,
		ServiceName:     "browsegpt",
		MaxBodyBytes:    defaultMaxBodyBytes,
		AccessLogJSON:   true,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

type Server struct {
	cfg      Config
	chat     input.ChatExecutor
	sessions output.SessionProviderPort
	browser  output.BrowserPort
	logger   output.LoggerPort
	router   chi.Router
}

func NewServer(
	cfg Config,
	chat input.ChatExecutor,
	sessions output.SessionProviderPort,
	browser output.BrowserPort,
	logger output.LoggerPort,
) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "browsegpt"
	}

	s := &Server{
		cfg:      cfg,
		chat:     chat,
		sessions: sessions,
		browser:  browser,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	accessLog := httplog.NewLogger(s.cfg.ServiceName, httplog.Options{
		JSON:    s.cfg.AccessLogJSON,
		Concise: true,
	})

	// RequestLogger also assigns request ids and recovers panics.
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/sessions/{id}/debug", s.handleSessionDebug)
		r.Get("/sessions/{id}/screenshot", s.handleScreenshot)
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	history, err := toHistory(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := s.logger.WithField("requestId", middleware.GetReqID(r.Context()))
	log.Info("Chat turn started", "messages", len(history))

	stream := NewDataStream(w)
	w.WriteHeader(http.StatusOK)

	events := make(chan entity.StreamEvent, eventBuffer)
	streamDone := make(chan error, 1)
	go func() {
		streamDone <- stream.Stream(r.Context(), events)
	}()

	start := time.Now()
	result, runErr := s.chat.Run(r.Context(), history, events)
	close(events)

	if err := <-streamDone; err != nil {
		log.Warn("Stream interrupted", "error", err)
	}

	switch {
	case runErr != nil:
		log.Error("Chat turn failed", "error", runErr, "durationMs", time.Since(start).Milliseconds())
	default:
		log.Info("Chat turn finished",
			"steps", result.Steps,
			"pending", len(result.Pending),
			"budgetExceeded", result.BudgetExceeded,
			"durationMs", time.Since(start).Milliseconds())
	}
}

func (s *Server) handleSessionDebug(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := s.sessions.GetDebugInfo(r.Context(), id)
	if err != nil {
		s.writeProviderError(w, "get debug info", id, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	shot, err := s.browser.Screenshot(r.Context(), id)
	if err != nil {
		s.writeProviderError(w, "screenshot", id, err)
		return
	}

	w.Header().Set("Content-Type", "image/"+shot.Format)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(shot.Data)
}

func (s *Server) writeProviderError(w http.ResponseWriter, op, sessionID string, err error) {
	s.logger.Warn("Session request failed", "op", op, "sessionId", sessionID, "error", err)

	var pe *entity.ProviderError
	switch {
	case errors.Is(err, entity.ErrNoPage):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, entity.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, op+" failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, op+" timed out")
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
