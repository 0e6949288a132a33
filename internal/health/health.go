package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wave-portal/internal/app"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Readiness is what the history exposes about its sync state
type Readiness interface {
	Seeded() bool
	Subscribed() bool
}

type Status struct {
	Status     string `json:"status"`
	Account    string `json:"account"`
	Records    int    `json:"records"`
	Phase      string `json:"phase"`
	Seeded     bool   `json:"seeded"`
	Subscribed bool   `json:"subscribed"`
}

// Server serves liveness, readiness and Prometheus metrics
type Server struct {
	history Readiness
	state   func() app.State
	logger  *zerolog.Logger
	srv     *http.Server
}

func NewServer(port int, history Readiness, state func() app.State, logger *zerolog.Logger) *Server {
	s := &Server{
		history: history,
		state:   state,
		logger:  logger,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.LivenessHandler)
	mux.HandleFunc("/readyz", s.ReadinessHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadinessHandler reports ready once the history is seeded and following
// live events.
func (s *Server) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	state := s.state()
	status := Status{
		Status:     "Ready",
		Account:    state.Account.String(),
		Records:    len(state.Records),
		Phase:      state.Pending.Phase.String(),
		Seeded:     s.history.Seeded(),
		Subscribed: s.history.Subscribed(),
	}

	code := http.StatusOK
	if !status.Seeded || !status.Subscribed {
		status.Status = "Not Ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Health server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Health server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
