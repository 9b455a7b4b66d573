package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc releases one resource during shutdown.
type ShutdownFunc func(context.Context) error

// ShutdownManager coordinates graceful shutdown: it waits for SIGINT or
// SIGTERM, drains the HTTP server, then runs the registered shutdown
// functions in registration order. Order matters: register dependents
// before the resources they use (the retention scheduler before the
// database, for example).
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu    sync.Mutex
	funcs []ShutdownFunc
}

// NewShutdownManager wires a manager around the primary HTTP server.
// A zero timeout defaults to 30 seconds.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
	}
}

// RegisterShutdownFunc appends fn to the ordered shutdown sequence.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, fn)
}

// WaitForShutdown blocks until a termination signal arrives, then drains
// the server and runs the shutdown sequence under the configured timeout.
// It returns the first error encountered; later functions still run so a
// failed close never strands the rest.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	sm.logger.WithField("signal", sig.String()).Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	var firstErr error

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server drain failed")
			firstErr = fmt.Errorf("drain HTTP server: %w", err)
		} else {
			sm.logger.Info("HTTP server drained")
		}
	}

	sm.mu.Lock()
	funcs := sm.funcs
	sm.mu.Unlock()

	for i, fn := range funcs {
		if err := ctx.Err(); err != nil {
			sm.logger.WithField("remaining", len(funcs)-i).Warn("shutdown timeout reached")
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown timed out with %d steps remaining", len(funcs)-i)
			}
			break
		}
		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).WithField("step", i).Error("shutdown step failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		sm.logger.Info("graceful shutdown complete")
	}
	return firstErr
}
