package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/poiesic/newsdigest/pipeline"
	"github.com/robfig/cron/v3"
)

// Server is the HTTP server plus an optional run schedule.
type Server struct {
	httpServer *http.Server
	runner     Runner
	cron       *cron.Cron
	cronID     cron.EntryID
	scheduled  bool
	logger     *slog.Logger
	mu         sync.Mutex
}

// NewServer creates a server listening on addr. runner may be nil when no
// schedule will be started.
func NewServer(addr string, handler http.Handler, runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		runner: runner,
		cron:   cron.New(),
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// StartCron schedules a pipeline run on a standard five-field cron
// expression. A tick that lands while a run is active is skipped.
func (s *Server) StartCron(schedule string, opts pipeline.RunOptions) error {
	if s.runner == nil {
		return errors.New("cannot schedule runs without a runner")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		s.cron.Remove(s.cronID)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info("cron triggered: starting scheduled run", "schedule", schedule)
		result, err := s.runner.Run(context.Background(), opts)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			s.logger.Info("cron skipped: a run is already in progress")
		case err != nil:
			s.logger.Error("scheduled run failed", "err", err)
		default:
			s.logger.Info("scheduled run complete", "run_id", result.RunID)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.scheduled = true
	s.cron.Start()
	s.logger.Info("cron job started", "schedule", schedule)
	return nil
}

// NextRun reports when the scheduled run fires next.
func (s *Server) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scheduled {
		return time.Time{}, false
	}
	return s.cron.Entry(s.cronID).Next, true
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", "addr", l.Addr().String())
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown is called.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops the schedule, waits for a running scheduled job, then
// gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduled run still active at shutdown")
	}

	return s.httpServer.Shutdown(ctx)
}
