// Package dispatch owns the control loop that turns raw notification bytes
// into canonical events and tests them against the rule.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fileguard/internal/action"
	"fileguard/internal/event"
	"fileguard/internal/logging"
	"fileguard/internal/notify"
	"fileguard/internal/rule"
	"fileguard/internal/watcher"
)

// ErrRead reports a failed notification read. There is no reconnect: the
// process exits after cleanup.
var ErrRead = errors.New("dispatch: notification read failed")

// State tracks the dispatcher lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options wires the dispatcher's collaborators.
type Options struct {
	Handle watcher.Handle
	Rule   rule.Rule
	Action action.Action
	Logger *logging.Logger
	// Sink, when set, receives every decoded event regardless of whether
	// it matches the rule.
	Sink notify.Sink
	// Now overrides the event timestamp source. Defaults to time.Now.
	Now func() time.Time
	// BufferSize overrides the notification buffer capacity.
	BufferSize int
}

// Dispatcher runs the single-threaded read/decode/match/act loop.
type Dispatcher struct {
	handle     watcher.Handle
	rule       rule.Rule
	action     action.Action
	logger     *logging.Logger
	sink       notify.Sink
	now        func() time.Time
	bufferSize int

	state       atomic.Int32
	releaseOnce sync.Once
	releaseErr  error
}

// New builds a Dispatcher. Handle, Rule, and Action are required.
func New(options Options) (*Dispatcher, error) {
	if options.Handle == nil {
		return nil, errors.New("dispatch: watch handle is required")
	}
	if options.Action == nil {
		return nil, errors.New("dispatch: action is required")
	}

	now := options.Now
	if now == nil {
		now = time.Now
	}
	bufferSize := options.BufferSize
	if bufferSize <= 0 {
		bufferSize = watcher.ReadBufferSize
	}

	return &Dispatcher{
		handle:     options.Handle,
		rule:       options.Rule,
		action:     options.Action,
		logger:     options.Logger,
		sink:       options.Sink,
		now:        now,
		bufferSize: bufferSize,
	}, nil
}

// State reports the current lifecycle state.
func (dispatcher *Dispatcher) State() State {
	return State(dispatcher.state.Load())
}

// Run blocks on the watch handle and dispatches decoded events until the
// context is cancelled or a read fails. Events within one read are handled
// in buffer order; reads are never batched or reordered. A cancelled
// context yields a nil return; an unprovoked read failure yields ErrRead.
// Fatal action errors (log writes) propagate as-is.
func (dispatcher *Dispatcher) Run(ctx context.Context) error {
	dispatcher.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
	defer dispatcher.stopping()

	buf := make([]byte, dispatcher.bufferSize)
	for {
		count, err := dispatcher.handle.Read(buf)
		if err != nil {
			dispatcher.stopping()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrRead, err)
		}

		if count == 0 {
			dispatcher.logger.Debug("read returned no data", nil)
			continue
		}

		if err := dispatcher.drain(buf[:count]); err != nil {
			dispatcher.stopping()
			return err
		}

		if ctx.Err() != nil {
			dispatcher.stopping()
			return nil
		}
	}
}

// stopping moves Running to Stopping without disturbing a concurrent
// Release that may already have reached Stopped.
func (dispatcher *Dispatcher) stopping() {
	dispatcher.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
}

// drain decodes every record in one notification buffer, in order.
func (dispatcher *Dispatcher) drain(buf []byte) error {
	cursor := event.NewCursor(buf)
	for cursor.More() {
		decoded, err := cursor.Next()
		if err != nil {
			// A mangled tail ends this buffer, not the process.
			dispatcher.logger.Warn("discarding undecodable buffer tail", map[string]string{
				"offset": fmt.Sprintf("%d", cursor.Offset()),
				"error":  err.Error(),
			})
			return nil
		}

		at := dispatcher.now()
		if decoded.Name == event.Unrecognized {
			dispatcher.logger.Debug("unrecognized event code", map[string]string{
				"mask": fmt.Sprintf("%#x", decoded.Mask),
			})
		} else {
			dispatcher.logger.Info("event decoded", map[string]string{
				"event": decoded.Name,
				"path":  dispatcher.handle.Path(),
			})
		}

		// The notifier fires for every decoded event, match or not.
		if dispatcher.sink != nil {
			if err := dispatcher.sink.Notify(at, decoded.Name); err != nil {
				dispatcher.logger.Warn("notification delivery failed", map[string]string{
					"error": err.Error(),
				})
			}
		}

		if decoded.Name != dispatcher.rule.EventName {
			continue
		}
		if err := dispatcher.action.Run(decoded.Name, at); err != nil {
			return err
		}
	}
	return nil
}

// Release closes the watch handle exactly once and marks the dispatcher
// stopped. Safe from the signal path while Run is blocked in a read, and
// safe to call again from the normal exit path.
func (dispatcher *Dispatcher) Release() error {
	dispatcher.releaseOnce.Do(func() {
		dispatcher.state.Store(int32(StateStopping))
		dispatcher.releaseErr = dispatcher.handle.Close()
		dispatcher.state.Store(int32(StateStopped))
	})
	return dispatcher.releaseErr
}
