// Package shutdown runs a set of servers until a signal arrives or one of them
// fails, then gives the rest a bounded grace period to drain.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultGracePeriod bounds how long servers may take to drain after shutdown starts.
const DefaultGracePeriod = 30 * time.Second

var ErrShuttingDown = errors.New("service is shutting down")

// Server represents any service that can be started and stopped with context cancellation.
type Server interface {
	Run(context.Context) error
}

// ServerFunc adapts a function to the Server interface.
type ServerFunc func(context.Context) error

func (f ServerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// CleanupFunc represents a cleanup function that may return an error.
type CleanupFunc func() error

// Status reports whether shutdown has started. It satisfies the readiness
// checker contract of the API server.
type Status struct {
	shuttingDown atomic.Bool
}

func (s *Status) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}

func (s *Status) CheckHealth(context.Context) error {
	if s.shuttingDown.Load() {
		return ErrShuttingDown
	}
	return nil
}

// Manager runs named servers side by side and tears them down together.
type Manager struct {
	servers     []named[Server]
	cleanups    []named[CleanupFunc]
	signals     []os.Signal
	gracePeriod time.Duration
	status      *Status
	log         logrus.FieldLogger
}

type named[T any] struct {
	name string
	fn   T
}

// NewManager returns a Manager that stops on SIGTERM, SIGINT or SIGQUIT.
func NewManager(log logrus.FieldLogger) *Manager {
	return &Manager{
		signals:     []os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT},
		gracePeriod: DefaultGracePeriod,
		status:      &Status{},
		log:         log,
	}
}

// AddServer registers a server. All servers start concurrently in Run.
func (m *Manager) AddServer(name string, server Server) *Manager {
	m.servers = append(m.servers, named[Server]{name, server})
	return m
}

// AddCleanup registers fn to run once every server has returned. Cleanups run
// last-registered first.
func (m *Manager) AddCleanup(name string, fn CleanupFunc) *Manager {
	m.cleanups = append(m.cleanups, named[CleanupFunc]{name, fn})
	return m
}

// WithSignals replaces the signals that start a shutdown.
func (m *Manager) WithSignals(signals ...os.Signal) *Manager {
	m.signals = signals
	return m
}

// WithGracePeriod changes the drain deadline. Non-positive values are ignored.
func (m *Manager) WithGracePeriod(d time.Duration) *Manager {
	if d > 0 {
		m.gracePeriod = d
	}
	return m
}

// Status returns the shutdown status shared with readiness probes.
func (m *Manager) Status() *Status {
	return m.status
}

// Run starts all servers and waits for a shutdown signal, cancellation of ctx or
// the first server failure. The remaining servers are then cancelled and given
// the grace period to return. Cleanups always run.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.servers) == 0 {
		return errors.New("no servers configured")
	}

	ctx, stop := signal.NotifyContext(ctx, m.signals...)
	defer stop()

	defer m.runCleanups()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, s := range m.servers {
		s := s
		group.Go(func() error {
			log := m.log.WithField("server", s.name)
			log.Info("server starting")
			err := s.fn.Run(groupCtx)
			switch {
			case err == nil:
				log.Info("server returned")
				return nil
			case errors.Is(err, context.Canceled):
				return err
			default:
				return &ServerError{Name: s.name, Err: err}
			}
		})
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	var err error
	select {
	case err = <-done:
		m.status.shuttingDown.Store(true)
	case <-groupCtx.Done():
		m.status.shuttingDown.Store(true)
		m.log.Infof("shutting down, draining servers for up to %v", m.gracePeriod)

		timer := time.NewTimer(m.gracePeriod)
		defer timer.Stop()
		select {
		case err = <-done:
		case <-timer.C:
			return fmt.Errorf("servers still running after %v grace period", m.gracePeriod)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	m.log.Info("all servers stopped")
	return nil
}

func (m *Manager) runCleanups() {
	for i := len(m.cleanups) - 1; i >= 0; i-- {
		c := m.cleanups[i]
		if err := c.fn(); err != nil {
			m.log.WithError(err).WithField("cleanup", c.name).Error("cleanup failed")
		}
	}
}

// ServerError identifies which server failed.
type ServerError struct {
	Name string
	Err  error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s server: %v", e.Name, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
