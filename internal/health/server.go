// Package health provides a lightweight HTTP server for the ingestion
// daemon's liveness and readiness checks and the Prometheus scrape endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	statusOK       = "ok"
	statusNotReady = "not_ready"
	statusPending  = "pending"

	pingTimeout     = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// IngestionStatus reports the outcome of the latest ingestion pass.
type IngestionStatus interface {
	LastRun() (time.Time, error)
}

// HealthResponse is the body of /health and /live.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse is the body of /ready.
type ReadyResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Checks        map[string]string `json:"checks,omitempty"`
	LastIngestion string            `json:"last_ingestion,omitempty"`
	Duration      string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Port        int
	Logger      *logrus.Logger
	DB          DatabasePinger
	Ingestion   IngestionStatus
	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
}

// check is one readiness check. Only critical checks can fail readiness.
type check struct {
	name     string
	critical bool
	run      func(ctx context.Context) string
}

// Server serves liveness and readiness endpoints for one service.
type Server struct {
	cfg    Config
	log    *logrus.Logger
	checks []check
	ready  atomic.Bool
	http   *http.Server
}

// NewServer creates a new health check server.
func NewServer(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{cfg: cfg, log: log}
	if cfg.DB != nil {
		s.checks = append(s.checks, check{name: "database", critical: true, run: s.pingDatabase})
	}
	if cfg.Ingestion != nil {
		s.checks = append(s.checks, check{name: "ingestion", run: s.ingestionState})
	}
	return s
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// Handler returns the routes served by the health server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	if s.cfg.Metrics != nil {
		mux.Handle(s.cfg.MetricsPath, s.cfg.Metrics)
	}
	return mux
}

// Start listens in the background and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithFields(logrus.Fields{
		"port":    s.cfg.Port,
		"service": s.cfg.ServiceName,
		"metrics": s.cfg.Metrics != nil,
	}).Info("Health server listening")

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Health server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.log.WithError(err).Warn("Health server shutdown failed")
		}
	}()
	return nil
}

// Shutdown stops the listener, waiting up to five seconds for open requests.
func (s *Server) Shutdown() error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    statusOK,
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Service: s.cfg.ServiceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := ReadyResponse{
		Status:  statusOK,
		Service: s.cfg.ServiceName,
		Checks:  map[string]string{"service": statusOK},
	}
	if !s.IsReady() {
		resp.Status = statusNotReady
		resp.Checks["service"] = statusNotReady
	}

	for _, c := range s.checks {
		state := c.run(r.Context())
		resp.Checks[c.name] = state
		if c.critical && state != statusOK {
			resp.Status = statusNotReady
		}
	}
	if s.cfg.Ingestion != nil {
		if last, _ := s.cfg.Ingestion.LastRun(); !last.IsZero() {
			resp.LastIngestion = last.UTC().Format(time.RFC3339)
		}
	}
	resp.Duration = time.Since(start).String()

	code := http.StatusOK
	if resp.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) pingDatabase(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.cfg.DB.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return statusOK
}

func (s *Server) ingestionState(context.Context) string {
	last, err := s.cfg.Ingestion.LastRun()
	switch {
	case last.IsZero():
		return statusPending
	case err != nil:
		return "error: " + err.Error()
	default:
		return statusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
