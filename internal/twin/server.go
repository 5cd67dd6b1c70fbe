// Package twin implements a behavioral twin of the remote products service:
// the same routes and wire format, backed by an in-memory store, with an
// /admin control plane for seeding, inspection, and fault injection.
package twin

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultPort matches the port the client's default base URL points at.
const DefaultPort = 3000

// Config holds the twin's runtime configuration, parsed from CLI flags.
type Config struct {
	Port     int
	Latency  time.Duration
	FailRate float64
	SeedFile string
	Verbose  bool
	Name     string
}

// ParseFlags parses twin flags from args. PORT in the environment is used
// when --port is not given.
func ParseFlags(name string, args []string) (*Config, error) {
	cfg := &Config{Name: name}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 0, "HTTP listen port (default: $PORT or 3000)")
	fs.DurationVar(&cfg.Latency, "latency", 0, "Base simulated latency")
	fs.Float64Var(&cfg.FailRate, "fail-rate", 0.0, "Random failure rate 0.0-1.0")
	fs.StringVar(&cfg.SeedFile, "seed-file", "", "Path to JSON fixture for initial state")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable request logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		if p := os.Getenv("PORT"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
			}
			cfg.Port = n
		}
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.FailRate < 0 || cfg.FailRate > 1 {
		return nil, fmt.Errorf("fail-rate must be between 0.0 and 1.0")
	}
	return cfg, nil
}

// Server wraps a chi router with the twin middleware stack.
type Server struct {
	Config *Config
	Router *chi.Mux
	Logger *slog.Logger
	Store  *Store
}

// New creates a Server with the product API and admin plane mounted.
func New(cfg *Config) *Server {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	return NewWithLogger(cfg, logger)
}

// NewWithLogger is New with an explicit logger, used by tests.
func NewWithLogger(cfg *Config, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	mw := NewMiddleware(cfg, logger)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog)
	r.Use(mw.LatencyInjection)

	s := &Server{
		Config: cfg,
		Router: r,
		Logger: logger,
		Store:  NewStore(),
	}

	NewProductHandler(s.Store, mw, logger).Routes(r)
	NewAdminHandler(s.Store, mw).Routes(r)
	return s
}

// LoadSeedFile replaces the store contents from a JSON fixture.
func (s *Server) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	if err := s.Store.LoadState(data); err != nil {
		return fmt.Errorf("loading seed data: %w", err)
	}
	s.Logger.Info("loaded seed data", "file", path, "products", s.Store.Count())
	return nil
}

// Serve listens on the configured port until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("starting twin", "name", s.Config.Name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down twin", "name", s.Config.Name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ServeHTTP implements http.Handler so a Server can back an httptest.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    http.StatusText(status),
			"code":    status,
		},
	})
}
