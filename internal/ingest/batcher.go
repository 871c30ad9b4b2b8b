package ingest

import (
	"context"
	"time"
)

// Quota is the provider-wide call ceiling, e.g. 5 calls per minute.
type Quota struct {
	CallsPerWindow int
	Window         time.Duration
}

// CallDelay is the pause needed after a symbol that costs callsPerSymbol
// provider calls so the quota is never exceeded. A zero quota means no pause.
func (q Quota) CallDelay(callsPerSymbol int) time.Duration {
	if q.CallsPerWindow <= 0 || q.Window <= 0 {
		return 0
	}
	if callsPerSymbol < 1 {
		callsPerSymbol = 1
	}
	return q.Window / time.Duration(q.CallsPerWindow) * time.Duration(callsPerSymbol)
}

// Clock sleeps for d or until ctx is done.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock sleeps on wall time.
var RealClock Clock = realClock{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Batcher runs steps one at a time with a pause after every step and an
// extra cooldown after every full batch. Nothing waits after the last step.
type Batcher struct {
	CallDelay  time.Duration
	BatchSize  int
	BatchDelay time.Duration
	Clock      Clock
}

// Run calls step(i) for i in [0, n) strictly in order. It only fails when a
// sleep is interrupted by ctx.
func (b Batcher) Run(ctx context.Context, n int, step func(i int)) error {
	clock := b.Clock
	if clock == nil {
		clock = RealClock
	}
	size := b.BatchSize
	if size <= 0 {
		size = n
	}

	for i := 0; i < n; i++ {
		step(i)
		if i == n-1 {
			break
		}
		if err := clock.Sleep(ctx, b.CallDelay); err != nil {
			return err
		}
		if (i+1)%size == 0 && b.BatchDelay > 0 {
			if err := clock.Sleep(ctx, b.BatchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// BatchOf returns the batch index of step i.
func (b Batcher) BatchOf(i int) int {
	if b.BatchSize <= 0 {
		return 0
	}
	return i / b.BatchSize
}
