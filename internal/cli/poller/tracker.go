package poller

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/validate"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/logger"
)

// Submitter creates submissions and reads them back.
type Submitter interface {
	Fetcher
	SubmitCode(ctx context.Context, req api.SubmitRequest, idempotencyKey string) (api.Submission, error)
}

// Tracker keeps at most one live task. Each Submit supersedes the previous one.
type Tracker struct {
	client Submitter
	poller *Poller

	mu      sync.Mutex
	current *Task
	closed  bool
}

func NewTracker(client Submitter, poller *Poller) *Tracker {
	return &Tracker{client: client, poller: poller}
}

// Submit validates req, cancels any running task, creates the submission and
// starts watching it. Validation failures never reach the network.
func (t *Tracker) Submit(ctx context.Context, req api.SubmitRequest, h Handlers) (*Task, error) {
	if err := validate.Submission(req); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errors.New(errors.RequestCanceled).WithMessage("tracker is closed")
	}
	prev := t.current
	t.current = nil
	t.mu.Unlock()
	if prev != nil {
		logger.Debug(ctx, "superseding running submission", zap.Int64("submission_id", prev.ID()))
		prev.Cancel()
	}

	if h.OnUpdate != nil {
		h.OnUpdate(api.Submission{Status: api.StatusSubmitting, Problem: req.ProblemID, Language: req.LanguageID})
	}
	created, err := t.client.SubmitCode(ctx, req, uuid.NewString())
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "submission created", zap.Int64("submission_id", created.ID))

	task := t.poller.Watch(ctx, created.ID, h)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		task.Cancel()
		return nil, errors.New(errors.RequestCanceled).WithMessage("tracker is closed")
	}
	// A concurrent Submit may have registered while this one was in flight.
	prev = t.current
	t.current = task
	t.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	return task, nil
}

// Current returns the live task, or nil.
func (t *Tracker) Current() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Close cancels the running task and rejects further submits.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	cur := t.current
	t.current = nil
	t.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
}
