package traceid

import (
	"context"
	"testing"

	"ojclient/internal/testutil"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		testutil.AssertTrue(t, next > prev, "ids should sort in creation order")
		prev = next
	}
	testutil.AssertTrue(t, Valid(prev), "id should parse as ulid")
}

func TestEnsureReusesExisting(t *testing.T) {
	ctx, id := Ensure(context.Background())
	testutil.AssertTrue(t, id != "", "expected a trace id")

	again, same := Ensure(ctx)
	testutil.AssertEqual(t, same, id)
	testutil.AssertEqual(t, FromContext(again), id)
	testutil.AssertEqual(t, FromContext(context.Background()), "")
}
