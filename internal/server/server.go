// Package server exposes a running scheduler over HTTP: Prometheus metrics,
// live per-unit progress as JSON, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/internal/scheduler"
)

// ProgressSource is implemented by *scheduler.Scheduler.
type ProgressSource interface {
	Snapshot() []scheduler.UnitStatus
}

// Server serves /metrics, /progress and /healthz.
type Server struct {
	progress ProgressSource
	gatherer prometheus.Gatherer
	http     *http.Server
	log      *slog.Logger
}

// UnitView is the JSON form of one unit's live status.
type UnitView struct {
	Unit     string    `json:"unit"`
	Stage    string    `json:"stage"`
	Updated  time.Time `json:"updated,omitempty"`
	Outcomes []string  `json:"outcomes,omitempty"`
	Success  *bool     `json:"success,omitempty"`
}

// New creates a Server listening on port. Either dependency may be nil.
func New(port int, progress ProgressSource, g prometheus.Gatherer) *Server {
	s := &Server{
		progress: progress,
		gatherer: g,
		log:      slog.Default().With("component", "server"),
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.gatherer != nil {
		mux.Handle("/metrics", metrics.Handler(s.gatherer))
	}
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("Status server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Status server error", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views := []UnitView{}
	if s.progress != nil {
		for _, st := range s.progress.Snapshot() {
			views = append(views, toView(st))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.log.Warn("Failed to encode progress", "error", err)
	}
}

func toView(st scheduler.UnitStatus) UnitView {
	v := UnitView{Unit: st.Unit.String(), Stage: "pending"}
	if st.Started {
		v.Stage = st.Stage.String()
		v.Updated = st.Updated
	}
	if st.Report != nil {
		ok := st.Report.Success()
		v.Success = &ok
		for _, p := range st.Report.Parts {
			v.Outcomes = append(v.Outcomes, string(p.Kind))
		}
	}
	return v
}
