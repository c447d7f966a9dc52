package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"fileguard/internal/logging"
)

type shutdownPhase struct {
	name string
	stop func(context.Context) error
}

// shutdownCoordinator runs teardown phases exactly once, no matter which
// exit path reaches it first: normal loop exit, fatal error, or signal.
type shutdownCoordinator struct {
	logger *logging.Logger
	once   sync.Once
	phases []shutdownPhase
}

func newShutdownCoordinator(logger *logging.Logger) *shutdownCoordinator {
	return &shutdownCoordinator{logger: logger}
}

func (coordinator *shutdownCoordinator) Add(name string, stop func(context.Context) error) {
	if coordinator == nil || stop == nil {
		return
	}
	coordinator.phases = append(coordinator.phases, shutdownPhase{name: name, stop: stop})
}

func (coordinator *shutdownCoordinator) Run(ctx context.Context) error {
	if coordinator == nil {
		return nil
	}
	var runErr error
	coordinator.once.Do(func() {
		for _, phase := range coordinator.phases {
			coordinator.logger.Debug("shutdown phase starting", map[string]string{
				"phase": phase.name,
			})
			if err := phase.stop(ctx); err != nil {
				runErr = errors.Join(runErr, err)
				coordinator.logger.Warn("shutdown phase failed", map[string]string{
					"phase": phase.name,
					"error": err.Error(),
				})
			}
		}
	})
	return runErr
}

// watchShutdownSignals cancels the run context and triggers teardown on the
// first termination signal. The signal goroutine does no other work; the
// dispatcher observes the cancellation cooperatively once its blocking read
// is released.
func watchShutdownSignals(logger *logging.Logger, shutdownCancel context.CancelFunc, coordinator *shutdownCoordinator, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	var shutdownStarted atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				if !shutdownStarted.CompareAndSwap(false, true) {
					logger.Debug("already shutting down", nil)
					continue
				}
				fields := map[string]string{}
				if sig != nil {
					fields["signal"] = sig.String()
				}
				logger.Warn("shutdown signal received", fields)
				if shutdownCancel != nil {
					shutdownCancel()
				}
				if err := coordinator.Run(context.Background()); err != nil {
					logger.Warn("shutdown cleanup failed", map[string]string{
						"error": err.Error(),
					})
				}
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
	}
}
