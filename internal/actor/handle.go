package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrKilled is the exit cause of an actor that was killed without a more
// specific reason.
var ErrKilled = errors.New("actor killed")

// Handle identifies a running actor. It is safe to share between goroutines
// and remains valid after the actor exits; holders must check Alive before
// trusting a cached handle.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	exited   bool
	cause    error
	kill     error
	killed   bool
	watchers []func(error)
}

// Spawn starts run in its own goroutine and returns a handle to it. The
// actor's context is canceled when the handle is killed or stopped. A panic
// inside run becomes an abnormal exit cause rather than crashing the
// process.
func Spawn(ctx context.Context, name string, run func(context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("actor %s panicked: %v", name, r)
				}
			}()
			err = run(ctx)
		}()
		h.finish(err)
	}()

	return h
}

// Name returns the actor's name, used only for logging and diagnostics.
func (h *Handle) Name() string {
	return h.name
}

// Alive reports whether the actor is still running. This is the cheap
// liveness probe used at cache boundaries: a handle pulled out of shared
// state may already be dead.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Done returns a channel that is closed when the actor has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cause returns the exit cause. It is nil for a normal exit and only
// meaningful once Done is closed.
func (h *Handle) Cause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cause
}

// Kill terminates the actor abnormally with the given cause. A nil cause is
// replaced with ErrKilled.
func (h *Handle) Kill(cause error) {
	if cause == nil {
		cause = ErrKilled
	}
	h.mu.Lock()
	if !h.killed && !h.exited {
		h.killed = true
		h.kill = cause
	}
	h.mu.Unlock()
	h.cancel()
}

// Stop terminates the actor normally. Watchers observe a nil cause.
func (h *Handle) Stop() {
	h.mu.Lock()
	if !h.killed && !h.exited {
		h.killed = true
		h.kill = nil
	}
	h.mu.Unlock()
	h.cancel()
}

// Watch registers fn to be called exactly once with the exit cause when the
// actor terminates. If the actor has already exited, fn is called
// immediately. fn must not block: it runs on the dying actor's goroutine.
func (h *Handle) Watch(fn func(cause error)) {
	h.mu.Lock()
	if h.exited {
		cause := h.cause
		h.mu.Unlock()
		fn(cause)
		return
	}
	h.watchers = append(h.watchers, fn)
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	// Context cancellation is how Stop and parent shutdown reach the actor;
	// it is not a crash in itself.
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	h.mu.Lock()
	if h.killed {
		err = h.kill
	}
	h.exited = true
	h.cause = err
	watchers := h.watchers
	h.watchers = nil
	h.mu.Unlock()

	h.cancel()
	close(h.done)

	for _, fn := range watchers {
		fn(err)
	}
}
