package ingest

import (
	"context"
	"time"

	"market-data-ingest/internal/lock"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// RunOnce runs a pass if the guard is free. It reports false when another
// run already holds the guard.
func RunOnce(ctx context.Context, guard lock.Guard, o *Orchestrator) (Summary, bool, error) {
	release, ok, err := guard.TryAcquire(ctx)
	if err != nil {
		return Summary{}, false, err
	}
	if !ok {
		return Summary{}, false, nil
	}
	defer release()
	summary, err := o.Run(ctx)
	return summary, true, err
}

// Loop triggers a pass every interval until ctx is done, sharing the guard
// with the HTTP trigger. Ticks that find a run in progress are skipped.
func Loop(ctx context.Context, interval time.Duration, guard lock.Guard, o *Orchestrator) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		_, ran, err := RunOnce(ctx, guard, o)
		switch {
		case err != nil:
			hlog.CtxErrorf(ctx, "ingest loop: %v", err)
		case !ran:
			hlog.CtxInfof(ctx, "ingest loop: run in progress, tick skipped")
		}
	}
}
