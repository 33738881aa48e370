// Package driver runs one batch: every record through the pipeline,
// outcomes into the result store, partial progress preserved on
// interruption.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/skylark-tools/letterpipe/internal/record"
	"github.com/skylark-tools/letterpipe/internal/store"
)

// Processor pushes one record to a terminal status. Implemented by
// pipeline.Pipeline; tests substitute fakes.
type Processor interface {
	Process(ctx context.Context, rec *record.Record, handled map[string]struct{}) record.Status
}

type Config struct {
	// ResultsPath is the append-only outcomes file, read for dedupe
	// keys at batch start and appended to at batch end.
	ResultsPath string

	// InterRecordDelay optionally paces records to be gentle on the
	// external services. Zero disables pacing.
	InterRecordDelay time.Duration
}

// Batch is the run context for one batch: configuration, collaborator
// handles (via the pipeline) and the accumulating result rows. Nothing
// here is global; a fresh Batch is built per run.
type Batch struct {
	runID   string
	cfg     Config
	pipe    Processor
	handled map[string]struct{}
	rows    []store.Row
}

func New(pipe Processor, handled map[string]struct{}, cfg Config) *Batch {
	if handled == nil {
		handled = make(map[string]struct{})
	}
	return &Batch{
		runID:   uuid.NewString(),
		cfg:     cfg,
		pipe:    pipe,
		handled: handled,
	}
}

// Run processes records in input order, strictly sequentially. One
// record's failure never stops the batch. Cancellation is observed
// only between records; on interruption the accumulated rows are
// flushed to a distinctly named partial file before returning.
func (b *Batch) Run(ctx context.Context, records []*record.Record) error {
	slog.Info("batch started", "run", b.runID, "records", len(records))
	start := time.Now()

	var limiter *rate.Limiter
	if b.cfg.InterRecordDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(b.cfg.InterRecordDelay), 1)
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			slog.Warn("batch interrupted, saving partial results", "run", b.runID, "processed", i)
			b.flushPartial()
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				slog.Warn("batch interrupted while pacing, saving partial results", "run", b.runID, "processed", i)
				b.flushPartial()
				return err
			}
		}

		recStart := time.Now()
		st := b.pipe.Process(ctx, rec, b.handled)
		slog.Info("record finished",
			"run", b.runID,
			"company", rec.CompanyName,
			"status", st.String(),
			"duration", time.Since(recStart).Round(time.Millisecond),
			"progress", fmt.Sprintf("%d/%d", i+1, len(records)))

		if persistable(st) {
			b.rows = append(b.rows, store.FromRecord(rec))
		}
	}

	if err := store.Append(b.rows, b.cfg.ResultsPath, time.Now()); err != nil {
		return fmt.Errorf("save batch results: %w", err)
	}
	slog.Info("batch finished", "run", b.runID,
		"recorded", len(b.rows), "duration", time.Since(start).Round(time.Second))
	return nil
}

// persistable applies the exclusion rule: records cut at validation or
// rejected purely as duplicates carry no new information; every other
// terminal status is recorded.
func persistable(st record.Status) bool {
	if st.Kind != record.StatusSkipped {
		return true
	}
	switch st.Reason {
	case record.ReasonDirective, record.ReasonBadAddress, record.ReasonDuplicate:
		return false
	default:
		return true
	}
}

// flushPartial writes whatever accumulated so far next to the
// configured output. Partial progress is never silently lost.
func (b *Batch) flushPartial() {
	if len(b.rows) == 0 {
		return
	}
	dir := filepath.Dir(b.cfg.ResultsPath)
	path := filepath.Join(dir, fmt.Sprintf("PARTIAL_RESULTS_%s.csv", time.Now().Format("20060102_150405")))
	if err := store.Append(b.rows, path, time.Now()); err != nil {
		slog.Error("failed to save partial results", "run", b.runID, "path", path, "error", err)
	}
}
