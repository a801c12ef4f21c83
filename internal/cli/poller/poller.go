// Package poller follows a submission from creation to its verdict.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/metrics"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/contextkey"
	"ojclient/pkg/utils/logger"
)

const DefaultInterval = 2 * time.Second

// Fetcher reads one submission snapshot.
type Fetcher interface {
	GetSubmission(ctx context.Context, id int64) (api.Submission, error)
}

// Handlers receive task events. Any of them may be nil. They run on the task's
// goroutine, so a slow handler delays the next tick.
type Handlers struct {
	OnUpdate   func(api.Submission)
	OnComplete func(api.Submission)
	OnError    func(error)
}

// Options configures a Poller. MaxPolls of 0 means no budget.
type Options struct {
	Interval time.Duration
	MaxPolls int
	Metrics  *metrics.Metrics
}

type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	maxPolls int
	metrics  *metrics.Metrics
}

func New(fetcher Fetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxPolls < 0 {
		opts.MaxPolls = 0
	}
	return &Poller{
		fetcher:  fetcher,
		interval: opts.Interval,
		maxPolls: opts.MaxPolls,
		metrics:  opts.Metrics,
	}
}

// Poll fetches the current snapshot once. It has no side effects.
func (p *Poller) Poll(ctx context.Context, id int64) (api.Submission, error) {
	sub, err := p.fetcher.GetSubmission(ctx, id)
	if err != nil {
		return sub, err
	}
	if sub.Status == "" {
		return sub, errors.Newf(errors.MalformedSnapshot, "submission %d returned an empty status", id)
	}
	return sub, nil
}

// Watch starts polling id in the background and returns the running task. The
// first poll happens immediately; each non-terminal snapshot schedules exactly
// one more after the interval. Ending ctx cancels the task.
func (p *Poller) Watch(ctx context.Context, id int64, h Handlers) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:       id,
		handlers: h,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go p.run(ctx, t)
	return t
}

func (p *Poller) run(ctx context.Context, t *Task) {
	defer close(t.done)
	defer t.cancel()
	ctx = context.WithValue(ctx, contextkey.SubmissionID, t.id)

	for polls := 1; ; polls++ {
		sub, err := p.Poll(ctx, t.id)
		if ctx.Err() != nil {
			t.abort(ctx.Err())
			p.count("canceled")
			return
		}
		if err != nil {
			logger.Warn(ctx, "polling stopped", zap.Error(err))
			t.fail(err)
			p.count("error")
			return
		}
		if sub.Status.IsTerminal() {
			logger.Debug(ctx, "verdict received", zap.String("status", string(sub.Status)))
			t.complete(sub)
			p.count("complete")
			return
		}
		if !t.update(sub) {
			p.count("canceled")
			return
		}
		p.count("update")

		if p.maxPolls > 0 && polls >= p.maxPolls {
			t.fail(errors.Newf(errors.PollBudgetExceeded, "no verdict for submission %d after %d polls", t.id, polls))
			p.count("exhausted")
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.abort(ctx.Err())
			p.count("canceled")
			return
		case <-timer.C:
		}
	}
}

func (p *Poller) count(outcome string) {
	if p.metrics == nil {
		return
	}
	p.metrics.Polls.WithLabelValues(outcome).Inc()
}
