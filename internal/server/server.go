// Package server exposes a running session over HTTP and accepts the AR
// tracker's surface and tap stream over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/scene"
	"github.com/ChicagoDave/crowpitcher/pkg/scene2d"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server serves one session.
type Server struct {
	sess     *session.Session
	hub      *Hub
	port     int
	logger   *zap.Logger
	upgrader websocket.Upgrader
	trackers sync.WaitGroup
}

// New creates a server for sess. hub must be the session's notifier so
// trackers receive its events.
func New(sess *session.Session, hub *Hub, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sess:   sess,
		hub:    hub,
		port:   port,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("GET /api/scene2d", s.handleScene2D)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("POST /api/place", s.handlePlace)
	mux.HandleFunc("GET /ws/tracker", s.handleTracker)
	mux.HandleFunc("GET /", s.handleIndex)

	return mux
}

// Run listens on the configured port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// Shutdown disconnects every tracker and waits for its handler to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked websocket connections are invisible to Shutdown.
	srv.RegisterOnShutdown(s.hub.CloseAll)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("crowpitcher server starting",
			zap.String("addr", "http://"+ln.Addr().String()),
			zap.String("session", s.sess.ID()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	trackersDone := make(chan struct{})
	go func() {
		s.trackers.Wait()
		close(trackersDone)
	}()
	select {
	case <-trackersDone:
	case <-shutdownCtx.Done():
		return fmt.Errorf("server shutdown: trackers still open: %w", shutdownCtx.Err())
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Crow and Pitcher</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>Crow and Pitcher</h1>
<p>Connect an AR tracker to <code>/ws/tracker</code>. Scene JSON is at <code>/api/scene</code>.</p>
</div>
</body></html>`)
}

type statusResponse struct {
	SessionID string  `json:"session_id"`
	Total     float64 `json:"total"`
	Threshold float64 `json:"threshold"`
	Unlocked  bool    `json:"unlocked"`
	Surfaces  int     `json:"surfaces"`
	Items     int     `json:"items"`
	CrowReady bool    `json:"crow_ready"`
	Fill      float64 `json:"fill"`
	Finished  bool    `json:"finished"`
	Trackers  int     `json:"trackers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		SessionID: snap.ID,
		Total:     snap.Total,
		Threshold: snap.Threshold,
		Unlocked:  snap.Unlocked,
		Surfaces:  len(snap.Surfaces),
		Items:     len(snap.Items),
		CrowReady: snap.Crow != nil,
		Fill:      snap.Fill,
		Finished:  snap.Finished,
		Trackers:  s.hub.Clients(),
	})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.Assemble(snap))
}

func (s *Server) handleScene2D(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, scene2d.Assemble2D(snap))
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sess.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.ValidateGraph(scene.Assemble(snap)))
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placement.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding placement request: %w", err))
		return
	}
	if req.Count < 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("count cannot be negative"))
		return
	}

	placed, report, err := s.sess.Place(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if placed == nil {
		placed = []placement.Placement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"placed": placed,
		"report": report,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
