package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocabhub/anki-gateway/internal/config"
	"github.com/vocabhub/anki-gateway/internal/health"
	"github.com/vocabhub/anki-gateway/internal/session"
)

const version = "1.0.0"

// Server is the ops HTTP server: liveness, component status, session
// introspection and Prometheus metrics. It never serves bot traffic.
type Server struct {
	cfg        *config.Config
	monitor    *health.Monitor
	sessions   *session.Store
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                             `json:"status"`
	Version   string                             `json:"version"`
	Uptime    string                             `json:"uptime"`
	Services  map[string]*health.ComponentStatus `json:"services"`
	Timestamp string                             `json:"timestamp"`
}

// SessionsResponse represents the active sessions listing
type SessionsResponse struct {
	Active   int           `json:"active"`
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo represents one user's conversation state
type SessionInfo struct {
	UserID    int64  `json:"user_id"`
	State     string `json:"state"`
	Word      string `json:"word,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// New creates the ops HTTP server
func New(cfg *config.Config, monitor *health.Monitor, sessions *session.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		monitor:   monitor,
		sessions:  sessions,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/api/v1/sessions", s.sessionsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles health check requests. The process is reported
// degraded, not down, when a collaborator probe fails: the bot keeps
// serving and reports failures per interaction.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "healthy"
	if s.monitor != nil && !s.monitor.Healthy() {
		status = "degraded"
	}

	resp := HealthResponse{
		Status:    status,
		Version:   version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.monitor != nil {
		resp.Services = s.monitor.Status()
	}

	writeJSON(w, resp)
}

// statusHandler reports the raw per-component probe history
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.monitor == nil {
		http.Error(w, "Monitor not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.monitor.Status())
}

// sessionsHandler lists active conversations
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := SessionsResponse{Sessions: []SessionInfo{}}
	if s.sessions != nil {
		resp.Active = s.sessions.ActiveCount()
		for _, sess := range s.sessions.ActiveSessions() {
			info := SessionInfo{
				UserID:    sess.UserID,
				State:     sess.State.String(),
				UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339),
			}
			if sess.Record != nil {
				info.Word = sess.Record.Word
			}
			resp.Sessions = append(resp.Sessions, info)
		}
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Encode error", http.StatusInternalServerError)
	}
}
