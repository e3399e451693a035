// Package server coordinates the arena's long-running components, such as
// the idle sweeper and the database health loop, starting them together and
// shutting them down in reverse order on SIGINT or SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// slowStopThreshold is how long a component may take to stop before the
// shutdown log flags it.
const slowStopThreshold = 5 * time.Second

// Service is a long-running component managed by the Lifecycle.
type Service interface {
	// Start runs the component. It must block until the component is
	// stopped or fails.
	Start() error
	// Stop shuts the component down and unblocks Start.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error { return f.StartFn() }
func (f *FuncService) Stop()        { f.StopFn() }

type registration struct {
	name string
	svc  Service
}

// Lifecycle runs a set of named services. Services start in registration
// order and stop in reverse so dependents go down before their dependencies.
type Lifecycle struct {
	logger *zap.Logger

	mu            sync.Mutex
	registrations []registration
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Registration order determines start order.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registrations = append(l.registrations, registration{name: name, svc: svc})
}

// Run starts every registered service and blocks until a termination signal
// arrives, the context is cancelled, or a service fails. It then stops all
// services in reverse order.
//
// Postcondition: Every service has been stopped when Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	up := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(l.registrations))
	for _, r := range l.registrations {
		r := r
		go func() {
			l.logger.Info("component starting", zap.String("component", r.name))
			if err := r.svc.Start(); err != nil {
				failures <- fmt.Errorf("component %s: %w", r.name, err)
				cancel()
			}
		}()
	}
	l.logger.Info("arena online", zap.Int("components", len(l.registrations)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		l.logger.Info("shutdown requested", zap.String("signal", sig.String()))
	case err := <-failures:
		l.logger.Error("component failed, shutting down", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.stopAll()
	l.logger.Info("arena offline", zap.Duration("uptime", time.Since(up)))
	return nil
}

// stopAll stops services in reverse registration order, flagging any that
// take longer than slowStopThreshold.
func (l *Lifecycle) stopAll() {
	for i := len(l.registrations) - 1; i >= 0; i-- {
		r := l.registrations[i]
		begin := time.Now()
		r.svc.Stop()
		elapsed := time.Since(begin)
		if elapsed > slowStopThreshold {
			l.logger.Warn("component stopped slowly",
				zap.String("component", r.name),
				zap.Duration("elapsed", elapsed))
			continue
		}
		l.logger.Info("component stopped",
			zap.String("component", r.name),
			zap.Duration("elapsed", elapsed))
	}
}
