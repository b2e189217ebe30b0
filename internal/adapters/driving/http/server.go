package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/runtime"
)

// DefaultMaxIngestBodyBytes bounds the JSON body of the save endpoint
const DefaultMaxIngestBodyBytes int64 = 1 << 20

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	statusMapping  StatusMapping
	maxIngestBytes int64

	// Services
	assistService driving.AssistService
	authService   driving.AuthService // nil leaves the save endpoint open
	store         driving.VectorStore
	services      *runtime.Services

	// Infrastructure
	lock Pinger // ingest lock backend health check (optional)
}

// Config holds server configuration
type Config struct {
	Host               string
	Port               int
	Version            string
	StatusMapping      StatusMapping
	MaxIngestBodyBytes int64
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		Version:            "dev",
		StatusMapping:      StatusMappingLegacy,
		MaxIngestBodyBytes: DefaultMaxIngestBodyBytes,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	assistService driving.AssistService,
	authService driving.AuthService, // can be nil
	store driving.VectorStore,
	services *runtime.Services,
	lock Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mapping := cfg.StatusMapping
	if mapping == "" {
		mapping = StatusMappingLegacy
	}
	maxBytes := cfg.MaxIngestBodyBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxIngestBodyBytes
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		statusMapping:  mapping,
		maxIngestBytes: maxBytes,
		assistService:  assistService,
		authService:    authService,
		store:          store,
		services:       services,
		lock:           lock,
	}

	s.setupRoutes()

	// Outermost first: recover, log, then CORS
	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.CORSAllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // answers wait on the LLM
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped request handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Ingestion is gated only when a token service is configured
	var save http.Handler = http.HandlerFunc(s.handleSave)
	if s.authService != nil {
		save = NewAuthMiddleware(s.authService).Authenticate(save)
	}
	s.router.Handle("POST /finance/assist/save", save)

	s.router.HandleFunc("GET /finance/assist/search", s.handleSearch)
	s.router.HandleFunc("GET /finance/assist/retrieve", s.handleRetrieve)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
