package ingest

import (
	"context"
	"time"

	"market-data-ingest/internal/store"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// MaxUpsertAttempts is the ceiling on writes for one row within a run.
const MaxUpsertAttempts = 3

// RetrySink retries a failing upsert. Retrying is safe because the write is
// keyed by (symbol, asset_type) and replaces every other column.
type RetrySink struct {
	next    store.Upserter
	backoff time.Duration
	clock   Clock
}

// NewRetrySink wraps next. A positive backoff doubles between attempts.
func NewRetrySink(next store.Upserter, backoff time.Duration, clock Clock) *RetrySink {
	if clock == nil {
		clock = RealClock
	}
	if backoff < 0 {
		backoff = 0
	}
	return &RetrySink{next: next, backoff: backoff, clock: clock}
}

func (s *RetrySink) Upsert(ctx context.Context, row store.MarketDataRow) error {
	var lastErr error
	wait := s.backoff
	for attempt := 1; attempt <= MaxUpsertAttempts; attempt++ {
		err := s.next.UpsertMarketData(ctx, row)
		if err == nil {
			return nil
		}
		lastErr = err
		hlog.CtxDebugf(ctx, "upsert attempt %d/%d failed: symbol=%s err=%v", attempt, MaxUpsertAttempts, row.Symbol, err)
		if attempt == MaxUpsertAttempts {
			break
		}
		if wait > 0 {
			if err := s.clock.Sleep(ctx, wait); err != nil {
				return &PersistError{Row: row, Attempts: attempt, Cause: err}
			}
			wait *= 2
		}
	}
	return &PersistError{Row: row, Attempts: MaxUpsertAttempts, Cause: lastErr}
}
