package alert

import (
	"context"
	"sync"
	"time"
)

// Operation performs one recipient's data lookup, email construction, and
// transmission. Implementations must never propagate a failure: any error from
// their own network calls is encoded as a failed Outcome so that one
// recipient's failure cannot abort the batch for the others.
type Operation func(ctx context.Context, farmer Farmer) Outcome

// Outcome is the per-recipient result of attempting one notification.
// Detail carries an error message on failure, or an informational message on
// a no-op success (e.g. "No price changes to report").
type Outcome struct {
	RecipientID string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	Success     bool   `json:"success"`
	Detail      string `json:"detail,omitempty"`
}

// Report is the aggregate result of one full dispatch run. Outcomes preserve
// the input recipient order even though sends within a batch race.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Outcomes  []Outcome
}

// Dispatcher partitions a recipient list into fixed-size batches, runs the
// per-recipient operation concurrently within each batch, and pauses between
// batches. Batching plus the inter-batch delay is a deliberately conservative
// throttle against an email provider with an unknown rate limit: at most
// BatchSize sends are in flight at any instant. Failed sends are not retried;
// the recipient is simply not notified until the next scheduled run.
type Dispatcher struct {
	batchSize int
	delay     time.Duration

	// sleep is the inter-batch pause, replaceable in tests.
	sleep func(time.Duration)
}

// NewDispatcher creates a dispatcher. Non-positive values fall back to the
// defaults of 10 recipients per batch and a 1s pause between batches.
func NewDispatcher(batchSize int, delay time.Duration) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 10
	}
	if delay < 0 {
		delay = time.Second
	}
	return &Dispatcher{
		batchSize: batchSize,
		delay:     delay,
		sleep:     time.Sleep,
	}
}

// Run executes op once for every farmer and returns the consolidated report.
// Recipients are processed in consecutive batches of batchSize (the last batch
// may be shorter); within a batch all operations run concurrently and the
// batch does not proceed until every member has settled. An empty recipient
// list returns immediately with no delay and no operation calls.
//
// Run itself has no failure path: op is required to convert its own errors
// into failed Outcomes.
func (d *Dispatcher) Run(ctx context.Context, farmers []Farmer, op Operation) Report {
	outcomes := make([]Outcome, len(farmers))

	for start := 0; start < len(farmers); start += d.batchSize {
		end := start + d.batchSize
		if end > len(farmers) {
			end = len(farmers)
		}

		// Fan out the batch. Each goroutine writes only its own slot, so the
		// final ordering comes from the batch partition rather than a shared
		// accumulator.
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = op(ctx, farmers[i])
			}(i)
		}
		wg.Wait()

		if end < len(farmers) && d.delay > 0 {
			d.sleep(d.delay)
		}
	}

	report := Report{
		Total:    len(farmers),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		if o.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report
}
