package paapi

import (
	"context"
	"errors"
	"time"
)

// Outcome tags a retry result so callers can tell a live catalog record from
// a degraded placeholder and log accordingly.
type Outcome int

const (
	// OutcomeLive means real catalog data was obtained.
	OutcomeLive Outcome = iota
	// OutcomeDegraded means every attempt produced a placeholder; the last
	// one is returned as better-than-nothing.
	OutcomeDegraded
)

// ErrNoResult means no record at all could be obtained: every attempt failed
// at the transport level.
var ErrNoResult = errors.New("paapi: no result after retries")

// ItemFetcher is the catalog call the retry controller wraps.
type ItemFetcher interface {
	GetItem(ctx context.Context, asin string) (Product, error)
}

// Retrier wraps an ItemFetcher with bounded exponential backoff. A
// placeholder result counts as transient catalog failure and is retried;
// it is never fatal.
type Retrier struct {
	fetcher     ItemFetcher
	maxAttempts int
	baseDelay   time.Duration

	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(fetcher ItemFetcher, maxAttempts int) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		fetcher:     fetcher,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		sleep:       sleepCtx,
	}
}

// Fetch calls the catalog up to maxAttempts times, backing off 1s, 2s, 4s,
// ... between attempts. The first non-placeholder record returns immediately
// as OutcomeLive. Exhausting attempts returns the last placeholder as
// OutcomeDegraded, or ErrNoResult when no attempt produced a record.
func (r *Retrier) Fetch(ctx context.Context, asin string) (Product, Outcome, error) {
	var last Product
	var have bool
	delay := r.baseDelay

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				return Product{}, OutcomeDegraded, err
			}
			delay *= 2
		}

		p, err := r.fetcher.GetItem(ctx, asin)
		if err != nil {
			continue
		}
		if !p.IsPlaceholder(asin) {
			return p, OutcomeLive, nil
		}
		last, have = p, true
	}

	if have {
		return last, OutcomeDegraded, nil
	}
	return Product{}, OutcomeDegraded, ErrNoResult
}

// sleepCtx waits for d without blocking unrelated work past cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
