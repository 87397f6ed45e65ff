package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndCount(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.Record(ctx, Entry{Channel: "telegram", ChatID: "1", Provider: "together", Language: "ar", Outcome: "ok", LatencyMs: 812})
	l.Record(ctx, Entry{Channel: "telegram", ChatID: "2", Provider: "together", Language: "en", Outcome: "ok", LatencyMs: 640})
	l.Record(ctx, Entry{Channel: "cli", ChatID: "direct", Provider: "together", Language: "en", Outcome: "malformed_payload", RawPayload: `{"weird": true}`})

	counts, err := l.CountByOutcome(ctx)
	if err != nil {
		t.Fatalf("CountByOutcome: %v", err)
	}
	if counts["ok"] != 2 {
		t.Fatalf("expected 2 ok turns, got %d", counts["ok"])
	}
	if counts["malformed_payload"] != 1 {
		t.Fatalf("expected 1 malformed turn, got %d", counts["malformed_payload"])
	}
}

func TestPrune_KeepsRecentTurns(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.Record(ctx, Entry{Channel: "cli", ChatID: "direct", Language: "en", Outcome: "ok"})

	n, err := l.Prune(ctx, 30)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh turns must survive pruning, deleted %d", n)
	}

	counts, err := l.CountByOutcome(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["ok"] != 1 {
		t.Fatalf("expected the turn to remain, got %v", counts)
	}
}
