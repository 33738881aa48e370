package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skylark-tools/letterpipe/internal/driver"
	"github.com/skylark-tools/letterpipe/internal/record"
	"github.com/skylark-tools/letterpipe/internal/store"
)

// scriptedProcessor returns canned statuses in record order.
type scriptedProcessor struct {
	statuses []record.Status
	calls    int
	cancel   context.CancelFunc
	cancelAt int
}

func (s *scriptedProcessor) Process(_ context.Context, rec *record.Record, _ map[string]struct{}) record.Status {
	st := s.statuses[s.calls]
	s.calls++
	if s.cancel != nil && s.calls == s.cancelAt {
		s.cancel()
	}
	rec.Outcome.Status = st
	return st
}

func someRecords(n int) []*record.Record {
	out := make([]*record.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &record.Record{
			CompanyName: "Co" + string(rune('A'+i)),
			Recipient:   strings.ToLower("co") + string(rune('a'+i)) + "@example.com",
			Directive:   "yes",
		})
	}
	return out
}

func TestRun_AppliesExclusionRule(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	results := filepath.Join(dir, "results.csv")

	proc := &scriptedProcessor{statuses: []record.Status{
		record.Skipped(record.ReasonDirective),          // excluded
		record.Skipped(record.ReasonBadAddress),         // excluded
		record.Skipped(record.ReasonDuplicate),          // excluded
		record.Skipped(record.ReasonInsufficientAssets), // recorded
		record.Errored(record.ReasonDraftFailed),        // recorded
		record.Success("d-1"),                           // recorded
	}}

	b := driver.New(proc, nil, driver.Config{ResultsPath: results})
	if err := b.Run(context.Background(), someRecords(6)); err != nil {
		t.Fatalf("run: %v", err)
	}

	keys, degraded := store.Load(results)
	if degraded {
		t.Fatal("results file should be readable")
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 persisted rows, got keys %v", keys)
	}
}

func TestRun_AllRecordsProcessedInOrder(t *testing.T) {
	t.Parallel()

	results := filepath.Join(t.TempDir(), "results.csv")
	proc := &scriptedProcessor{statuses: []record.Status{
		record.Success("d-1"), record.Success("d-2"), record.Success("d-3"),
	}}

	b := driver.New(proc, nil, driver.Config{ResultsPath: results})
	if err := b.Run(context.Background(), someRecords(3)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if proc.calls != 3 {
		t.Fatalf("expected 3 processed records, got %d", proc.calls)
	}
}

func TestRun_InterruptionFlushesPartialResults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	results := filepath.Join(dir, "results.csv")

	ctx, cancel := context.WithCancel(context.Background())
	proc := &scriptedProcessor{
		statuses: []record.Status{
			record.Success("d-1"), record.Success("d-2"), record.Success("d-3"),
		},
		cancel:   cancel,
		cancelAt: 2,
	}

	b := driver.New(proc, nil, driver.Config{ResultsPath: results})
	err := b.Run(ctx, someRecords(3))
	if err == nil {
		t.Fatal("expected interruption error")
	}
	if proc.calls != 2 {
		t.Fatalf("cancellation must be observed between records; processed %d", proc.calls)
	}

	if _, statErr := os.Stat(results); !os.IsNotExist(statErr) {
		t.Fatal("interrupted run must not write the regular results file")
	}
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	partialFound := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "PARTIAL_RESULTS_") {
			partialFound = true
		}
	}
	if !partialFound {
		t.Fatalf("partial results not flushed; dir: %v", entries)
	}
}

func TestRun_EmptyBatchWritesNothing(t *testing.T) {
	t.Parallel()

	results := filepath.Join(t.TempDir(), "results.csv")
	b := driver.New(&scriptedProcessor{}, nil, driver.Config{ResultsPath: results})
	if err := b.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(results); !os.IsNotExist(err) {
		t.Fatal("no results file expected for an empty batch")
	}
}
