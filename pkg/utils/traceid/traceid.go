// Package traceid mints sortable request ids and carries them through a context.
package traceid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"ojclient/pkg/utils/contextkey"
)

var (
	once sync.Once
	gen  *generator
)

// generator hands out ULIDs from a monotonic source; safe for concurrent use.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

func initGenerator() {
	gen = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a new lexicographically sortable id for the current time.
func New() string {
	once.Do(initGenerator)
	return gen.newAt(time.Now().UTC())
}

// Valid reports whether s is a canonical ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// FromContext returns the trace id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(contextkey.TraceID).(string); ok {
		return v
	}
	return ""
}

// Ensure returns ctx with a trace id attached, reusing one that is already present.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return context.WithValue(ctx, contextkey.TraceID, id), id
}
