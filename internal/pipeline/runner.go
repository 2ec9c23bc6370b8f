// Package pipeline runs the enrichment passes: a sequential loop over a
// worklist with per-item failure isolation, inter-item delays for
// rate-limited hosts, periodic checkpoint output, and a final summary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Outcome classifies one processed item.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not found"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeError    Outcome = "error"
)

// ItemResult is what a pass reports for one item.
type ItemResult struct {
	Outcome Outcome
	Detail  string
	Err     error
}

// Stats are the run-level counters.
type Stats struct {
	Processed int
	Succeeded int
	NotFound  int
	Skipped   int
	Errored   int
}

// Summary prints the end-of-run block.
func (s Stats) Summary() {
	fmt.Printf("\nDone: %d processed, %d ok, %d not found, %d skipped, %d errored\n",
		s.Processed, s.Succeeded, s.NotFound, s.Skipped, s.Errored)
}

// Runner drives one pass over a worklist. Items are processed strictly one
// at a time; every per-item failure is counted and the loop continues.
type Runner struct {
	// Delay is slept between items, not after the last one.
	Delay time.Duration

	// CheckpointEvery prints a progress block every N items. 0 disables.
	CheckpointEvery int

	// Start skips the first N items, for resuming an interrupted run.
	Start int

	// Limit caps processed items after Start. 0 means no cap.
	Limit int

	// DryRun is read by the passes; the runner only reports it.
	DryRun bool
}

// Run processes items sequentially. Cancellation stops the loop between
// items; the current item always finishes.
func Run[T any](ctx context.Context, r *Runner, items []T, label func(T) string, process func(context.Context, T) ItemResult) Stats {
	if r.Start > 0 {
		if r.Start >= len(items) {
			items = nil
		} else {
			items = items[r.Start:]
		}
	}
	if r.Limit > 0 && len(items) > r.Limit {
		items = items[:r.Limit]
	}

	total := len(items)
	if r.DryRun {
		fmt.Printf("Dry run: %d items, nothing will be written\n", total)
	}

	var stats Stats
	for i, item := range items {
		if ctx.Err() != nil {
			fmt.Printf("Interrupted after %d of %d items\n", i, total)
			break
		}

		res := process(ctx, item)
		stats.Processed++
		switch res.Outcome {
		case OutcomeOK:
			stats.Succeeded++
		case OutcomeNotFound:
			stats.NotFound++
		case OutcomeSkipped:
			stats.Skipped++
		default:
			stats.Errored++
		}

		line := fmt.Sprintf("[%d/%d] %s: %s", r.Start+i+1, r.Start+total, label(item), res.Outcome)
		if res.Detail != "" {
			line += " (" + res.Detail + ")"
		}
		fmt.Println(line)
		if res.Err != nil {
			zap.L().Warn("item failed", zap.String("item", label(item)), zap.Error(res.Err))
		}

		if r.CheckpointEvery > 0 && (i+1)%r.CheckpointEvery == 0 && i+1 < total {
			fmt.Printf("-- checkpoint: %d/%d processed, %d ok, %d not found, %d skipped, %d errored\n",
				r.Start+i+1, r.Start+total, stats.Succeeded, stats.NotFound, stats.Skipped, stats.Errored)
		}

		if r.Delay > 0 && i+1 < total {
			select {
			case <-ctx.Done():
			case <-time.After(r.Delay):
			}
		}
	}
	return stats
}
