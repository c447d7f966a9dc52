package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fileguard/internal/event"
	"fileguard/internal/logging"
	"fileguard/internal/rule"
	"fileguard/internal/watcher"
)

// fakeHandle plays back scripted reads, then either fails or blocks until
// closed.
type fakeHandle struct {
	mutex      sync.Mutex
	reads      [][]byte
	readErr    error
	closed     chan struct{}
	closeCalls int
}

func newFakeHandle(reads [][]byte, readErr error) *fakeHandle {
	return &fakeHandle{
		reads:   reads,
		readErr: readErr,
		closed:  make(chan struct{}),
	}
}

func (handle *fakeHandle) Read(buf []byte) (int, error) {
	handle.mutex.Lock()
	if len(handle.reads) > 0 {
		next := handle.reads[0]
		handle.reads = handle.reads[1:]
		handle.mutex.Unlock()
		return copy(buf, next), nil
	}
	err := handle.readErr
	handle.mutex.Unlock()

	if err != nil {
		return 0, err
	}
	<-handle.closed
	return 0, watcher.ErrClosed
}

func (handle *fakeHandle) Close() error {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	handle.closeCalls++
	if handle.closeCalls == 1 {
		close(handle.closed)
	}
	return nil
}

func (handle *fakeHandle) Path() string { return "/tmp/watched" }

type invocation struct {
	name string
	at   time.Time
}

// recorderAction captures every invocation; it can be told to fail.
type recorderAction struct {
	mutex sync.Mutex
	calls []invocation
	err   error
}

func (recorder *recorderAction) Run(eventName string, at time.Time) error {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.calls = append(recorder.calls, invocation{name: eventName, at: at})
	return recorder.err
}

func (recorder *recorderAction) invocations() []invocation {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]invocation(nil), recorder.calls...)
}

type recorderSink struct {
	mutex sync.Mutex
	seen  []string
}

func (sink *recorderSink) Notify(at time.Time, eventName string) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.seen = append(sink.seen, eventName)
	return nil
}

func quietLogger() *logging.Logger {
	return logging.NewLoggerWithOutput(logging.LevelError, nil)
}

func records(masks ...uint32) []byte {
	var buf []byte
	for _, mask := range masks {
		buf = event.AppendRecord(buf, mask, 0, []byte("name\x00\x00"))
	}
	return buf
}

func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		at := current
		current = current.Add(time.Second)
		return at
	}
}

func TestRunDispatchesOncePerMatchingRecord(t *testing.T) {
	handle := newFakeHandle([][]byte{
		records(event.MaskCreate, event.MaskModify, event.MaskCreate),
	}, errors.New("stream ended"))
	recorder := &recorderAction{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Create},
		Action: recorder,
		Logger: quietLogger(),
		Now:    tickingClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := dispatcher.Run(context.Background()); !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead after stream end, got %v", err)
	}

	calls := recorder.invocations()
	if len(calls) != 2 {
		t.Fatalf("got %d action invocations, want 2", len(calls))
	}
	for _, call := range calls {
		if call.name != event.Create {
			t.Fatalf("dispatched %q, want %q", call.name, event.Create)
		}
	}
	if !calls[0].at.Before(calls[1].at) {
		t.Fatalf("timestamps out of order: %v then %v", calls[0].at, calls[1].at)
	}
}

func TestRunPreservesCrossReadOrder(t *testing.T) {
	handle := newFakeHandle([][]byte{
		records(event.MaskCreate),
		records(event.MaskDelete),
		records(event.MaskCreate),
	}, errors.New("stream ended"))
	recorder := &recorderAction{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Create},
		Action: recorder,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = dispatcher.Run(context.Background())

	calls := recorder.invocations()
	if len(calls) != 2 {
		t.Fatalf("got %d invocations, want 2", len(calls))
	}
}

func TestRunContinuesOnZeroLengthRead(t *testing.T) {
	handle := newFakeHandle([][]byte{
		nil,
		records(event.MaskModify),
	}, errors.New("stream ended"))
	recorder := &recorderAction{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Modify},
		Action: recorder,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = dispatcher.Run(context.Background())

	if got := len(recorder.invocations()); got != 1 {
		t.Fatalf("got %d invocations after zero-length read, want 1", got)
	}
}

func TestRunReturnsNilWhenCancelled(t *testing.T) {
	handle := newFakeHandle(nil, nil)
	recorder := &recorderAction{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Modify},
		Action: recorder,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- dispatcher.Run(ctx)
	}()

	cancel()
	if err := dispatcher.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not unblock after release")
	}
	if dispatcher.State() != StateStopped {
		t.Fatalf("state = %v, want %v", dispatcher.State(), StateStopped)
	}
}

func TestReleaseClosesHandleExactlyOnce(t *testing.T) {
	handle := newFakeHandle(nil, errors.New("stream ended"))
	recorder := &recorderAction{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Modify},
		Action: recorder,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := dispatcher.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := dispatcher.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if handle.closeCalls != 1 {
		t.Fatalf("handle closed %d times, want 1", handle.closeCalls)
	}
}

func TestSinkFiresForEveryDecodedEvent(t *testing.T) {
	handle := newFakeHandle([][]byte{
		records(event.MaskCreate, event.MaskModify, 0x00100000),
	}, errors.New("stream ended"))
	recorder := &recorderAction{}
	sink := &recorderSink{}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Create},
		Action: recorder,
		Logger: quietLogger(),
		Sink:   sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = dispatcher.Run(context.Background())

	if len(sink.seen) != 3 {
		t.Fatalf("sink saw %d events, want every decoded record (3)", len(sink.seen))
	}
	if sink.seen[2] != event.Unrecognized {
		t.Fatalf("sink should also see unrecognized records, got %q", sink.seen[2])
	}
	if got := len(recorder.invocations()); got != 1 {
		t.Fatalf("action ran %d times, want 1", got)
	}
}

func TestRunPropagatesFatalActionError(t *testing.T) {
	fatal := errors.New("log write failed")
	handle := newFakeHandle([][]byte{
		records(event.MaskModify),
	}, nil)
	recorder := &recorderAction{err: fatal}

	dispatcher, err := New(Options{
		Handle: handle,
		Rule:   rule.Rule{EventName: event.Modify},
		Action: recorder,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := dispatcher.Run(context.Background()); !errors.Is(err, fatal) {
		t.Fatalf("expected fatal action error, got %v", err)
	}
	if dispatcher.State() != StateStopping {
		t.Fatalf("state = %v, want %v", dispatcher.State(), StateStopping)
	}
}
