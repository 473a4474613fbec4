package usecase

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pricelens/backend/internal/domain"
)

// Batch defaults.
const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
)

// ItemState tracks where a batch item is in its lifecycle. Succeeded and
// FailedTerminal are terminal.
type ItemState string

// Item states for the sequential-retry strategy.
const (
	ItemPending         ItemState = "pending"
	ItemAttempting      ItemState = "attempting"
	ItemSucceeded       ItemState = "succeeded"
	ItemFailedRetryable ItemState = "failed_retryable"
	ItemFailedTerminal  ItemState = "failed_terminal"
)

// BatchConfig holds configuration for the sequential-retry strategy.
type BatchConfig struct {
	MaxAttempts int           // attempts per item, including the first
	Backoff     time.Duration // fixed delay before each retry
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	return c
}

// ProgressFunc reports progress as (currentIndex, totalCount). It is called
// before each item's outcome is known.
type ProgressFunc func(current, total int)

// ItemOutcome records the final disposition of one batch item.
type ItemOutcome[R any] struct {
	Index    int       `json:"index"`
	Success  bool      `json:"success"`
	Value    R         `json:"value,omitempty"`
	Attempts int       `json:"attempts"`
	State    ItemState `json:"state"`
	Error    string    `json:"error,omitempty"`
}

// SequentialReport is the outcome of a sequential-retry batch. Results
// holds successful values only, in input order; terminally-failed items
// are omitted from Results but recorded in Items.
type SequentialReport[R any] struct {
	Results []R              `json:"results"`
	Items   []ItemOutcome[R] `json:"items"`
}

// RunSequential drives the sequential-retry batch strategy: items are
// processed one at a time in input order, each with up to MaxAttempts
// attempts separated by a fixed backoff. A terminally-failed item is
// recorded with a human-readable message (structured provider payload
// preferred) and the batch moves on - it never aborts early. The batch as
// a whole fails only when the result set comes out empty.
//
// Each item's retry loop fully blocks progress on the next item. That is
// deliberate: it respects upstream rate limits and keeps progress
// reporting predictable.
func RunSequential[I, R any](
	ctx context.Context,
	config BatchConfig,
	items []I,
	call func(ctx context.Context, item I) (R, error),
	progress ProgressFunc,
) (*SequentialReport[R], error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	config = config.withDefaults()

	report := &SequentialReport[R]{
		Results: make([]R, 0, len(items)),
		Items:   make([]ItemOutcome[R], 0, len(items)),
	}

	for i, item := range items {
		if progress != nil {
			progress(i, len(items))
		}

		outcome := runWithRetry(ctx, config, i, item, call)
		report.Items = append(report.Items, outcome)
		if outcome.Success {
			report.Results = append(report.Results, outcome.Value)
		}
	}

	if len(report.Results) == 0 {
		return report, domain.ErrBatchFailed
	}
	return report, nil
}

// runWithRetry resolves a single item through the per-item state machine:
// Pending -> Attempting -> Succeeded | FailedRetryable -> ... -> FailedTerminal.
func runWithRetry[I, R any](
	ctx context.Context,
	config BatchConfig,
	index int,
	item I,
	call func(ctx context.Context, item I) (R, error),
) ItemOutcome[R] {
	outcome := ItemOutcome[R]{Index: index, State: ItemPending}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		outcome.State = ItemAttempting
		outcome.Attempts = attempt

		value, err := call(ctx, item)
		if err == nil {
			outcome.Success = true
			outcome.Value = value
			outcome.State = ItemSucceeded
			return outcome
		}
		lastErr = err

		if attempt < config.MaxAttempts {
			outcome.State = ItemFailedRetryable
			log.Printf("[BATCH] item %d attempt %d/%d failed: %v", index, attempt, config.MaxAttempts, err)
			if !sleepBackoff(ctx, config.Backoff) {
				break
			}
		}
	}

	outcome.State = ItemFailedTerminal
	outcome.Error = domain.FailureMessage(lastErr)
	log.Printf("[BATCH] item %d terminally failed after %d attempts: %s", index, outcome.Attempts, outcome.Error)
	return outcome
}

// sleepBackoff waits for the fixed backoff, returning false if the context
// was cancelled first.
func sleepBackoff(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunFanOut drives the parallel fan-out strategy: every item's call is
// dispatched concurrently with no retry - a single failure per item is
// immediately terminal. The join waits for all tasks and preserves strict
// 1:1 input/output correspondence by indexing results positionally: a
// failed item yields the placeholder built by onError instead of being
// dropped.
func RunFanOut[I, R any](
	ctx context.Context,
	items []I,
	call func(ctx context.Context, item I) (R, error),
	onError func(item I, err error) R,
) ([]R, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			value, err := call(gctx, item)
			if err != nil {
				log.Printf("[BATCH] fan-out item %d failed: %v", i, err)
				results[i] = onError(item, err)
				return nil
			}
			results[i] = value
			return nil
		})
	}

	// Tasks never return errors (failures become placeholders), so Wait is
	// purely the join barrier.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
