package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ojclient/internal/testutil"
	"ojclient/pkg/utils/contextkey"
)

func TestContextFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer func() { globalLogger = nil }()

	ctx := context.WithValue(context.Background(), contextkey.TraceID, "01HZX")
	ctx = context.WithValue(ctx, contextkey.SubmissionID, int64(42))
	ctx = context.WithValue(ctx, contextkey.Command, "submit watch")

	Info(ctx, "poll tick", zap.String("status", "PENDING"))

	entries := logs.All()
	testutil.AssertEqual(t, len(entries), 1)
	fields := entries[0].ContextMap()
	testutil.AssertEqual(t, fields["trace_id"], "01HZX")
	testutil.AssertEqual(t, fields["submission_id"], int64(42))
	testutil.AssertEqual(t, fields["command"], "submit watch")
	testutil.AssertEqual(t, fields["status"], "PENDING")
}

func TestNilLoggerIsSilent(t *testing.T) {
	globalLogger = nil
	Info(context.Background(), "dropped")
	testutil.AssertNil(t, Sync())
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	testutil.AssertNotNil(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := t.TempDir() + "/nested/cli.log"
	l, err := NewLogger(Config{Level: "debug", Format: "json", OutputPath: path})
	testutil.AssertNoError(t, err)
	l.WithContext(context.Background()).Info("hello")
	testutil.AssertNoError(t, l.Sync())
}
