package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"market-data-ingest/internal/classify"
	"market-data-ingest/internal/ingest"
	"market-data-ingest/internal/lock"
	"market-data-ingest/internal/store"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	TriggerPath       = "/functions/v1/fetch-market-data"
	IngestRunPath     = "/api/v1/ingest/run"
	IngestStatusPath  = "/api/v1/ingest/status"
	MarketDataPath    = "/api/v1/market-data"
	corsAllowHeaders  = "authorization, x-client-info, apikey, content-type"
	completedMessage  = "Market data update completed"
	runInProgressText = "ingestion run already in progress"
)

// Runner is one full ingestion pass plus its progress view.
type Runner interface {
	Run(ctx context.Context) (ingest.Summary, error)
	Status() ingest.Status
}

type Deps struct {
	Runner Runner
	Guard  lock.Guard
	Reader store.Reader
	// Validate is checked on every trigger so a missing credential fails the
	// request before any provider call.
	Validate func() error
	// ReportSummary adds the run counts to the trigger response.
	ReportSummary bool
}

// marketDataItem is a stored row with its read-side tags.
type marketDataItem struct {
	store.MarketDataRow
	RiskLevel      classify.Risk           `json:"risk_level"`
	Recommendation classify.Recommendation `json:"recommendation"`
}

func RegisterRoutes(h *server.Hertz, deps Deps) {
	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(200, map[string]bool{"ok": true})
	})

	trigger := triggerHandler(deps)
	h.Any(TriggerPath, trigger)
	h.Any(IngestRunPath, trigger)

	h.GET(IngestStatusPath, func(_ context.Context, c *app.RequestContext) {
		if deps.Runner == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "ingestion not configured",
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":     true,
			"status": deps.Runner.Status(),
		})
	})

	h.GET(MarketDataPath, func(ctx context.Context, c *app.RequestContext) {
		if deps.Reader == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "store not configured",
			})
			return
		}

		var (
			risk    classify.Risk
			rec     classify.Recommendation
			hasRisk bool
			hasRec  bool
		)
		if raw := c.Query("risk"); raw != "" && !strings.EqualFold(raw, "all") {
			if risk, hasRisk = classify.ParseRisk(raw); !hasRisk {
				c.JSON(http.StatusBadRequest, map[string]any{
					"ok":    false,
					"error": "invalid risk (low|medium|high)",
				})
				return
			}
		}
		if raw := c.Query("recommendation"); raw != "" && !strings.EqualFold(raw, "all") {
			if rec, hasRec = classify.ParseRecommendation(raw); !hasRec {
				c.JSON(http.StatusBadRequest, map[string]any{
					"ok":    false,
					"error": "invalid recommendation (buy|hold|sell)",
				})
				return
			}
		}
		filter := store.ListFilter{
			Market:    allToEmpty(c.Query("market")),
			AssetType: allToEmpty(c.Query("asset_type")),
		}

		rows, err := deps.Reader.ListMarketData(ctx, filter)
		if err != nil {
			hlog.CtxErrorf(ctx, "list market data: %v", err)
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}

		items := make([]marketDataItem, 0, len(rows))
		for _, row := range rows {
			item := marketDataItem{
				MarketDataRow:  row,
				RiskLevel:      classify.RiskLevel(row.ChangePercentage),
				Recommendation: classify.Recommend(row.ChangePercentage),
			}
			if hasRisk && item.RiskLevel != risk {
				continue
			}
			if hasRec && item.Recommendation != rec {
				continue
			}
			items = append(items, item)
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":    true,
			"items": items,
		})
	})
}

func triggerHandler(deps Deps) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)

		if string(c.Method()) == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}

		if deps.Validate != nil {
			if err := deps.Validate(); err != nil {
				hlog.CtxErrorf(ctx, "ingest trigger rejected: %v", err)
				c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
		}
		if deps.Runner == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{"error": "ingestion not configured"})
			return
		}

		if deps.Guard != nil {
			release, ok, err := deps.Guard.TryAcquire(ctx)
			if err != nil {
				hlog.CtxErrorf(ctx, "ingest trigger: run guard: %v", err)
				c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			if !ok {
				c.JSON(http.StatusConflict, map[string]any{"error": runInProgressText})
				return
			}
			defer release()
		}

		summary, err := deps.Runner.Run(ctx)
		if err != nil {
			// Universe failures are already logged by the run itself.
			if !errors.Is(err, ingest.ErrUniverseUnavailable) {
				hlog.CtxErrorf(ctx, "ingest trigger: %v", err)
			}
			c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}

		body := map[string]any{
			"success": true,
			"message": completedMessage,
		}
		if deps.ReportSummary {
			body["summary"] = summary
		}
		c.JSON(http.StatusOK, body)
	}
}

func allToEmpty(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return ""
	}
	return raw
}
