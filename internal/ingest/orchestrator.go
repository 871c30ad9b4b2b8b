package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"market-data-ingest/internal/market"
	"market-data-ingest/internal/store"
	"market-data-ingest/internal/universe"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

type State int

const (
	StateIdle State = iota
	StateResolvingUniverse
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingUniverse:
		return "resolving_universe"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Summary holds the counts of one run. Individual causes are only logged.
type Summary struct {
	Total         int       `json:"total"`
	Succeeded     int       `json:"succeeded"`
	Failed        int       `json:"failed"`
	FetchFailed   int       `json:"fetch_failed"`
	PersistFailed int       `json:"persist_failed"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State       string   `json:"state"`
	Batch       int      `json:"batch"`
	SymbolIndex int      `json:"symbol_index"`
	Symbol      string   `json:"symbol,omitempty"`
	LastSummary *Summary `json:"last_summary,omitempty"`
	LastError   string   `json:"last_error,omitempty"`
}

type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
}

type OverviewFetcher interface {
	Overview(ctx context.Context, symbol string) (market.Overview, error)
}

// Sink persists one normalized row.
type Sink interface {
	Upsert(ctx context.Context, row store.MarketDataRow) error
}

// Notifier is told about every completed run.
type Notifier interface {
	NotifyRun(ctx context.Context, summary Summary) error
}

type Config struct {
	Quota      Quota
	BatchSize  int
	BatchDelay time.Duration
	Clock      Clock
}

type Option func(*Orchestrator)

// WithOverview enables the company profile call for every symbol. It doubles
// the provider calls per symbol, so the call delay doubles too.
func WithOverview(f OverviewFetcher) Option {
	return func(o *Orchestrator) {
		o.overviews = f
	}
}

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

type Orchestrator struct {
	cfg       Config
	universe  universe.Provider
	quotes    QuoteFetcher
	overviews OverviewFetcher
	sink      Sink
	notifier  Notifier
	now       func() time.Time

	mu      sync.Mutex
	state   State
	batch   int
	index   int
	symbol  string
	last    *Summary
	lastErr error
}

func NewOrchestrator(cfg Config, u universe.Provider, quotes QuoteFetcher, sink Sink, opts ...Option) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock
	}
	o := &Orchestrator{
		cfg:      cfg,
		universe: u,
		quotes:   quotes,
		sink:     sink,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one full pass over the universe. Only universe failures are
// returned; per-symbol failures are counted in the summary. The pass is
// detached from ctx cancellation so a dropped trigger does not cut it short.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	ctx = context.WithoutCancel(ctx)
	summary := Summary{StartedAt: o.now().UTC()}

	o.setState(StateResolvingUniverse)
	hlog.CtxInfof(ctx, "ingest: run started")

	symbols, err := o.universe.Resolve(ctx)
	if err == nil && len(symbols) == 0 {
		err = errors.New("no symbols resolved")
	}
	if err != nil {
		if !errors.Is(err, ErrUniverseUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUniverseUnavailable, err)
		}
		summary.FinishedAt = o.now().UTC()
		o.finish(StateFailed, summary, err)
		hlog.CtxErrorf(ctx, "ingest: run aborted: %v", err)
		return summary, err
	}

	summary.Total = len(symbols)
	callsPerSymbol := 1
	if o.overviews != nil {
		callsPerSymbol = 2
	}
	batcher := Batcher{
		CallDelay:  o.cfg.Quota.CallDelay(callsPerSymbol),
		BatchSize:  o.cfg.BatchSize,
		BatchDelay: o.cfg.BatchDelay,
		Clock:      o.cfg.Clock,
	}
	hlog.CtxInfof(ctx, "ingest: %d symbols, batch_size=%d call_delay=%s batch_delay=%s",
		len(symbols), batcher.BatchSize, batcher.CallDelay, batcher.BatchDelay)

	err = batcher.Run(ctx, len(symbols), func(i int) {
		sym := symbols[i]
		o.setProgress(batcher.BatchOf(i), i, sym.Symbol)

		err := o.ingestOne(ctx, sym)
		var (
			fetchErr   *market.FetchError
			persistErr *PersistError
		)
		switch {
		case err == nil:
			summary.Succeeded++
		case errors.As(err, &persistErr):
			summary.Failed++
			summary.PersistFailed++
			hlog.CtxErrorf(ctx, "ingest: persist failed: symbol=%s err=%v", sym.Symbol, err)
		case errors.As(err, &fetchErr):
			summary.Failed++
			summary.FetchFailed++
			hlog.CtxWarnf(ctx, "ingest: fetch failed: symbol=%s err=%v", sym.Symbol, err)
		default:
			summary.Failed++
			hlog.CtxWarnf(ctx, "ingest: symbol failed: symbol=%s err=%v", sym.Symbol, err)
		}
		if (i+1)%batcher.BatchSize == 0 || i == len(symbols)-1 {
			hlog.CtxInfof(ctx, "ingest: batch %d done (%d/%d)", batcher.BatchOf(i), i+1, len(symbols))
		}
	})
	summary.FinishedAt = o.now().UTC()
	if err != nil {
		err = fmt.Errorf("ingest interrupted: %w", err)
		o.finish(StateFailed, summary, err)
		return summary, err
	}

	o.finish(StateCompleted, summary, nil)
	hlog.CtxInfof(ctx, "ingest: run completed: total=%d succeeded=%d failed=%d (fetch=%d persist=%d) in %s",
		summary.Total, summary.Succeeded, summary.Failed, summary.FetchFailed, summary.PersistFailed,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))

	if o.notifier != nil {
		if err := o.notifier.NotifyRun(ctx, summary); err != nil {
			hlog.CtxWarnf(ctx, "ingest: run report not sent: %v", err)
		}
	}
	return summary, nil
}

func (o *Orchestrator) ingestOne(ctx context.Context, sym market.Symbol) error {
	q, err := o.quotes.Quote(ctx, sym.Symbol)
	if err != nil {
		var fe *market.FetchError
		if !errors.As(err, &fe) {
			err = &market.FetchError{Symbol: sym.Symbol, Cause: err}
		}
		return err
	}

	row := store.MarketDataRow{
		Symbol:           sym.Symbol,
		AssetType:        string(sym.AssetType),
		Name:             sym.DisplayName,
		Price:            q.Price,
		Change:           q.Change,
		ChangePercentage: q.ChangePercent,
		Volume:           q.Volume,
		Market:           string(sym.Exchange),
		LastUpdated:      q.AsOf,
	}
	if row.AssetType == "" {
		row.AssetType = string(market.AssetStock)
	}
	if row.Name == "" {
		row.Name = sym.Symbol
	}

	if o.overviews != nil {
		ov, err := o.overviews.Overview(ctx, sym.Symbol)
		if err != nil {
			hlog.CtxWarnf(ctx, "ingest: overview unavailable, using descriptor: symbol=%s err=%v", sym.Symbol, err)
		} else {
			if ov.Name != "" {
				row.Name = ov.Name
			}
			row.Sector = ov.Sector
			row.MarketCap = ov.MarketCap
		}
	}

	if err := o.sink.Upsert(ctx, row); err != nil {
		var pe *PersistError
		if !errors.As(err, &pe) {
			err = &PersistError{Row: row, Attempts: 1, Cause: err}
		}
		return err
	}
	hlog.CtxDebugf(ctx, "ingest: stored symbol=%s price=%.4f change_pct=%.4f", row.Symbol, row.Price, row.ChangePercentage)
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.batch, o.index, o.symbol = 0, 0, ""
	o.mu.Unlock()
}

func (o *Orchestrator) setProgress(batch, index int, symbol string) {
	o.mu.Lock()
	o.state = StateRunning
	o.batch, o.index, o.symbol = batch, index, symbol
	o.mu.Unlock()
}

func (o *Orchestrator) finish(s State, summary Summary, err error) {
	o.mu.Lock()
	o.state = s
	o.symbol = ""
	o.last = &summary
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastSummary returns the summary of the most recent finished run.
func (o *Orchestrator) LastSummary() (Summary, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return Summary{}, false
	}
	return *o.last, true
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{
		State:       o.state.String(),
		Batch:       o.batch,
		SymbolIndex: o.index,
		Symbol:      o.symbol,
	}
	if o.last != nil {
		s := *o.last
		st.LastSummary = &s
	}
	if o.lastErr != nil {
		st.LastError = o.lastErr.Error()
	}
	return st
}
