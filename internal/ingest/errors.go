package ingest

import (
	"fmt"

	"market-data-ingest/internal/store"
	"market-data-ingest/internal/universe"
)

// ErrUniverseUnavailable aborts a run before any symbol is fetched.
var ErrUniverseUnavailable = universe.ErrUnavailable

// ConfigError reports a missing credential or setting. It is fatal and is
// raised before any provider call.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("config: %s is required", e.Field)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// PersistError is returned once a row has failed every upsert attempt.
type PersistError struct {
	Row      store.MarketDataRow
	Attempts int
	Cause    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s/%s after %d attempts: %v", e.Row.Symbol, e.Row.AssetType, e.Attempts, e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }
