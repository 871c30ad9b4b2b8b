package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"market-data-ingest/internal/ingest"
	"market-data-ingest/internal/lock"
	"market-data-ingest/internal/store"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	summary ingest.Summary
	err     error
	calls   int
}

func (f *fakeRunner) Run(context.Context) (ingest.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeRunner) Status() ingest.Status {
	return ingest.Status{State: ingest.StateCompleted.String(), LastSummary: &f.summary}
}

func newTestServer(deps Deps) *server.Hertz {
	h := server.New()
	RegisterRoutes(h, deps)
	return h
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestTrigger_Options(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(Deps{Runner: runner, Guard: lock.NewLocal()})

	w := ut.PerformRequest(h.Engine, http.MethodOptions, TriggerPath, nil)
	resp := w.Result()

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Body())
	assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, corsAllowHeaders, string(resp.Header.Peek("Access-Control-Allow-Headers")))
	assert.Equal(t, 0, runner.calls)
}

func TestTrigger_Success(t *testing.T) {
	runner := &fakeRunner{summary: ingest.Summary{Total: 10, Succeeded: 7, Failed: 3}}
	h := newTestServer(Deps{Runner: runner, Guard: lock.NewLocal()})

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		w := ut.PerformRequest(h.Engine, method, TriggerPath, nil)
		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode())

		body := decode(t, resp.Body())
		assert.Equal(t, true, body["success"])
		// Partial failures are not visible without the summary option.
		assert.NotContains(t, body, "summary")
		assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	}
	assert.Equal(t, 2, runner.calls)
}

func TestTrigger_ReportSummary(t *testing.T) {
	runner := &fakeRunner{summary: ingest.Summary{Total: 10, Succeeded: 7, Failed: 3, FetchFailed: 3}}
	h := newTestServer(Deps{Runner: runner, Guard: lock.NewLocal(), ReportSummary: true})

	w := ut.PerformRequest(h.Engine, http.MethodPost, IngestRunPath, nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())

	body := decode(t, w.Result().Body())
	summary, ok := body["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), summary["failed"])
	assert.Equal(t, float64(10), summary["total"])
}

func TestTrigger_ConfigError(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(Deps{
		Runner:   runner,
		Guard:    lock.NewLocal(),
		Validate: func() error { return &ingest.ConfigError{Field: "ALPHA_VANTAGE_API_KEY"} },
	})

	w := ut.PerformRequest(h.Engine, http.MethodPost, TriggerPath, nil)
	resp := w.Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	assert.Contains(t, decode(t, resp.Body())["error"], "ALPHA_VANTAGE_API_KEY")
	assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, 0, runner.calls)
}

func TestTrigger_UniverseFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: listing down", ingest.ErrUniverseUnavailable)}
	h := newTestServer(Deps{Runner: runner, Guard: lock.NewLocal()})

	w := ut.PerformRequest(h.Engine, http.MethodPost, TriggerPath, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode())
	assert.Contains(t, decode(t, w.Result().Body())["error"], "universe unavailable")
}

func TestTrigger_RunInProgress(t *testing.T) {
	guard := lock.NewLocal()
	release, ok, err := guard.TryAcquire(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	runner := &fakeRunner{}
	h := newTestServer(Deps{Runner: runner, Guard: guard})

	w := ut.PerformRequest(h.Engine, http.MethodPost, TriggerPath, nil)
	assert.Equal(t, http.StatusConflict, w.Result().StatusCode())
	assert.Equal(t, runInProgressText, decode(t, w.Result().Body())["error"])
	assert.Equal(t, 0, runner.calls)
}

func TestTrigger_GuardError(t *testing.T) {
	h := newTestServer(Deps{Runner: &fakeRunner{}, Guard: brokenGuard{}})
	w := ut.PerformRequest(h.Engine, http.MethodPost, TriggerPath, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode())
}

type brokenGuard struct{}

func (brokenGuard) TryAcquire(context.Context) (func(), bool, error) {
	return nil, false, errors.New("redis: connection refused")
}

func TestStatus(t *testing.T) {
	runner := &fakeRunner{summary: ingest.Summary{Total: 2, Succeeded: 2}}
	h := newTestServer(Deps{Runner: runner})

	w := ut.PerformRequest(h.Engine, http.MethodGet, IngestStatusPath, nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	status, ok := decode(t, w.Result().Body())["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", status["state"])
}

func TestMarketData(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ts := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	rows := []store.MarketDataRow{
		{Symbol: "AAPL", AssetType: "stock", Name: "Apple Inc.", Price: 173.5, ChangePercentage: 1.34, Market: "NASDAQ", LastUpdated: ts},
		{Symbol: "TSLA", AssetType: "stock", Name: "Tesla", Price: 170, ChangePercentage: -6.2, Market: "NASDAQ", LastUpdated: ts},
		{Symbol: "JPM", AssetType: "stock", Name: "JPMorgan", Price: 195, ChangePercentage: 2.5, Market: "NYSE", LastUpdated: ts},
	}
	for _, r := range rows {
		require.NoError(t, st.UpsertMarketData(t.Context(), r))
	}
	h := newTestServer(Deps{Reader: st})

	items := func(url string) []any {
		w := ut.PerformRequest(h.Engine, http.MethodGet, url, nil)
		require.Equal(t, http.StatusOK, w.Result().StatusCode(), url)
		out, ok := decode(t, w.Result().Body())["items"].([]any)
		require.True(t, ok, url)
		return out
	}

	all := items(MarketDataPath)
	require.Len(t, all, 3)
	aapl := all[0].(map[string]any)
	assert.Equal(t, "AAPL", aapl["symbol"])
	assert.Equal(t, "low", aapl["risk_level"])
	assert.Equal(t, "hold", aapl["recommendation"])

	high := items(MarketDataPath + "?risk=high")
	require.Len(t, high, 1)
	assert.Equal(t, "TSLA", high[0].(map[string]any)["symbol"])
	assert.Equal(t, "sell", high[0].(map[string]any)["recommendation"])

	buys := items(MarketDataPath + "?recommendation=buy&market=NYSE")
	require.Len(t, buys, 1)
	assert.Equal(t, "JPM", buys[0].(map[string]any)["symbol"])
	assert.Equal(t, "medium", buys[0].(map[string]any)["risk_level"])

	assert.Len(t, items(MarketDataPath+"?risk=all&market=all"), 3)

	w := ut.PerformRequest(h.Engine, http.MethodGet, MarketDataPath+"?risk=extreme", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}

func TestHealthz(t *testing.T) {
	h := newTestServer(Deps{})
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
}
