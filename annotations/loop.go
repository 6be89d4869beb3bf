package annotations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tailored-agentic-units/annotations/observability"
)

// Loop serializes every interaction with a Store on one goroutine. User
// commands, surface callbacks, debounced drafts, and asynchronous style
// loads all re-enter the store through it, so each is handled to
// completion before the next starts.
type Loop struct {
	store *Store

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop attaches a Loop to s and starts it. The loop stops when ctx is
// cancelled or Shutdown is called.
func NewLoop(ctx context.Context, s *Store) *Loop {
	loopCtx, cancel := context.WithCancel(ctx)
	l := &Loop{
		store:  s,
		wake:   make(chan struct{}, 1),
		ctx:    loopCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.post = l.Post

	go l.run()
	return l
}

// Store returns the store driven by the loop. It must only be touched from
// functions running on the loop.
func (l *Loop) Store() *Store {
	return l.store
}

// Post queues fn to run on the loop. It never blocks; fn is dropped once
// the loop has stopped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Store) error) error {
	result := make(chan error, 1)

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLoopClosed
	}

	l.Post(func() { result <- fn(l.store) })

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("dispatch cancelled: %w", ctx.Err())
	case <-l.done:
		return ErrLoopClosed
	}
}

// Dispatch applies cmd on the loop and waits for it to complete.
func (l *Loop) Dispatch(ctx context.Context, cmd Command) error {
	return l.Do(ctx, func(s *Store) error {
		err := Apply(ctx, s, cmd)
		if err != nil {
			observability.Emit(ctx, s.observer, EventCommandFailed, observability.LevelWarning, "annotations.Loop", map[string]any{
				"command": cmd.Name(),
				"error":   err.Error(),
			})
		}
		return err
	})
}

// Shutdown stops the loop, waiting up to timeout for the task in progress.
func (l *Loop) Shutdown(timeout time.Duration) error {
	l.cancel()
	select {
	case <-l.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("loop shutdown timed out after %v", timeout)
	}
}

func (l *Loop) run() {
	defer close(l.done)
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()

			fn()

			if l.ctx.Err() != nil {
				return
			}
		}

		select {
		case <-l.wake:
		case <-l.ctx.Done():
			return
		}
	}
}
