// Package server runs a set of servers under one lifecycle and shuts them
// down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Runnable represents a component that can be started and stopped.
type Runnable interface {
	// Start begins serving and returns once the server is accepting work.
	Start(ctx context.Context) error
	// Stop stops the server gracefully.
	Stop(ctx context.Context) error
	// Name returns the server name for identification.
	Name() string
}

// Manager manages multiple servers with a unified lifecycle.
type Manager struct {
	shutdownTimeout time.Duration
	servers         []Runnable
	mu              sync.Mutex
	started         bool
}

// NewManager creates a new server manager.
func NewManager(shutdownTimeout time.Duration, servers ...Runnable) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &Manager{
		shutdownTimeout: shutdownTimeout,
		servers:         servers,
	}
}

// AddServer adds a server started after the ones already registered.
func (m *Manager) AddServer(server Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, server)
}

// Start starts all servers in order. When one fails the already started ones
// are stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("server manager already started")
	}

	for i, server := range m.servers {
		if err := server.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.servers[j].Stop(ctx)
			}
			return fmt.Errorf("failed to start server %s: %w", server.Name(), err)
		}
		logger.Infow("Server started", "name", server.Name())
	}
	m.started = true
	return nil
}

// Stop stops all servers in reverse start order.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false

	var errs []error
	for i := len(m.servers) - 1; i >= 0; i-- {
		server := m.servers[i]
		if err := server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", server.Name(), err))
			continue
		}
		logger.Infow("Server stopped", "name", server.Name())
	}
	return utilerrors.NewAggregate(errs)
}

// Run starts all servers and blocks until ctx is cancelled or a shutdown
// signal arrives, then stops them within the shutdown timeout.
func (m *Manager) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()
	return m.Stop(shutdownCtx)
}
