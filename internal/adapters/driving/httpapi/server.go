// Package httpapi serves grounded answers through an OpenAI-compatible
// chat completions endpoint, so chat front ends can use the pipeline as a
// model.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/custodia-labs/udirag/internal/core/ports/driving"
	"github.com/custodia-labs/udirag/internal/logger"
)

// Defaults for Config.
const (
	DefaultAddr    = ":8000"
	DefaultModelID = "norwegian-rag-hybrid"
	DefaultOwnedBy = "local-llama3"

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Config holds server settings.
type Config struct {
	Addr    string
	ModelID string
	OwnedBy string
}

// Server answers chat requests with the answer service.
type Server struct {
	answers driving.AnswerService
	cfg     Config
	now     func() time.Time
}

// New creates a server. Empty config fields take the defaults.
func New(answers driving.AnswerService, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.OwnedBy == "" {
		cfg.OwnedBy = DefaultOwnedBy
	}
	return &Server{answers: answers, cfg: cfg, now: time.Now}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return cors.AllowAll().Handler(logRequests(mux))
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Serving %s on %s", s.cfg.ModelID, s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
