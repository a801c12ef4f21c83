package poller

import (
	"context"
	"sync"

	"ojclient/internal/cli/api"
)

// Task is one running watch. Completion is claimed under mu, so at most one of
// OnComplete or OnError fires. A Cancel that wins the claim suppresses both.
// Callbacks run on the polling goroutine outside mu: one that started before
// Cancel may still be running after it returns, but none runs once Done is
// closed.
type Task struct {
	id       int64
	handlers Handlers
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.Mutex
	finished bool
	last     api.Submission
	err      error
}

func (t *Task) ID() int64 { return t.id }

// Cancel stops the task. Safe to call more than once and after completion.
func (t *Task) Cancel() {
	t.mu.Lock()
	if !t.finished {
		t.finished = true
		t.err = context.Canceled
	}
	t.mu.Unlock()
	t.cancel()
}

// Done is closed when the polling goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task ends and returns the last snapshot seen. The error
// is nil for a verdict, context.Canceled after Cancel, or the polling failure.
func (t *Task) Wait(ctx context.Context) (api.Submission, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return t.Last(), ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.err
}

// Last returns the most recent snapshot.
func (t *Task) Last() api.Submission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// update records a non-terminal snapshot and reports whether the task is still live.
func (t *Task) update(sub api.Submission) bool {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return false
	}
	t.last = sub
	t.mu.Unlock()
	if t.handlers.OnUpdate != nil {
		t.handlers.OnUpdate(sub)
	}
	return true
}

func (t *Task) complete(sub api.Submission) {
	if !t.claim(sub, nil) {
		return
	}
	if t.handlers.OnComplete != nil {
		t.handlers.OnComplete(sub)
	}
}

func (t *Task) fail(err error) {
	if !t.claim(api.Submission{}, err) {
		return
	}
	if t.handlers.OnError != nil {
		t.handlers.OnError(err)
	}
}

// abort ends the task without callbacks, e.g. when the parent context ends.
func (t *Task) abort(err error) {
	t.claim(api.Submission{}, err)
}

func (t *Task) claim(sub api.Submission, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return false
	}
	t.finished = true
	if err == nil {
		t.last = sub
	}
	t.err = err
	return true
}
