package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market-data-ingest/internal/api"
	"market-data-ingest/internal/config"
	"market-data-ingest/internal/ingest"
	"market-data-ingest/internal/lock"
	"market-data-ingest/internal/market"
	"market-data-ingest/internal/push/dingtalk"
	"market-data-ingest/internal/store"
	"market-data-ingest/internal/universe"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "configs/app.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	hlog.SetLevel(parseLevel(cfg.Log.Level))
	if err := cfg.Validate(); err != nil {
		// Keep serving: the trigger reports the same error per request.
		hlog.Warnf("config incomplete, ingestion trigger will fail: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))

	var (
		sink   store.Upserter
		reader store.Reader
	)
	switch cfg.Store.Driver {
	case "postgrest":
		pg := store.NewPostgREST(cfg.Store.PostgREST.URL, cfg.Store.PostgREST.ServiceKey,
			time.Duration(cfg.Store.PostgREST.TimeoutMs)*time.Millisecond, nil)
		sink, reader = pg, pg
	default:
		st, err := store.Open(cfg.Store.Sqlite.Path)
		if err != nil {
			log.Fatalf("store error: %v", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Printf("store close error: %v", err)
			}
		}()
		sink, reader = st, st
	}

	provider := market.NewAlphaVantage(cfg.Market.APIKey,
		market.WithBaseURL(cfg.Market.BaseURL),
		market.WithTimeout(time.Duration(cfg.Market.RequestTimeoutMs)*time.Millisecond),
	)

	var symbols universe.Provider
	switch cfg.Universe.Mode {
	case "listing":
		symbols = universe.NewListing(provider, cfg.Universe.MaxSymbols)
	default:
		symbols = universe.NewStatic(cfg.Universe.MarketSymbols())
	}

	var guard lock.Guard = lock.NewLocal()
	if cfg.Lock.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Lock.Redis.Addr,
			Password:     cfg.Lock.Redis.Password,
			DB:           cfg.Lock.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		defer func() { _ = rdb.Close() }()
		guard = lock.NewRedis(rdb, cfg.Lock.Redis.Key, time.Duration(cfg.Lock.Redis.TTLSec)*time.Second)
		hlog.Infof("run guard: redis %s key=%s", cfg.Lock.Redis.Addr, cfg.Lock.Redis.Key)
	}

	opts := []ingest.Option{}
	if cfg.Market.FetchOverview {
		opts = append(opts, ingest.WithOverview(provider))
	}
	dt := dingtalk.NewClient(
		cfg.Push.Dingtalk.Webhook,
		cfg.Push.Dingtalk.Secret,
		time.Duration(cfg.Push.Dingtalk.TimeoutMs)*time.Millisecond,
	)
	if dt.Enabled() {
		opts = append(opts, ingest.WithNotifier(dingtalk.NewRunReporter(dt, cfg.Push.Dingtalk.OnlyFailures)))
	}

	orch := ingest.NewOrchestrator(ingest.Config{
		Quota: ingest.Quota{
			CallsPerWindow: cfg.Ingest.CallsPerWindow,
			Window:         time.Duration(cfg.Ingest.WindowSec) * time.Second,
		},
		BatchSize:  cfg.Ingest.BatchSize,
		BatchDelay: time.Duration(cfg.Ingest.BatchDelaySec) * time.Second,
	}, symbols, provider,
		ingest.NewRetrySink(sink, time.Duration(cfg.Persist.RetryBackoffMs)*time.Millisecond, nil),
		opts...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Ingest.IntervalSec > 0 {
		go ingest.Loop(ctx, time.Duration(cfg.Ingest.IntervalSec)*time.Second, guard, orch)
		hlog.Infof("ingest loop every %ds", cfg.Ingest.IntervalSec)
	}

	api.RegisterRoutes(h, api.Deps{
		Runner:        orch,
		Guard:         guard,
		Reader:        reader,
		Validate:      cfg.Validate,
		ReportSummary: cfg.Ingest.ReportSummary,
	})
	hlog.Infof("route registered: ANY %s", api.TriggerPath)
	hlog.Infof("route registered: ANY %s", api.IngestRunPath)

	hlog.Infof("server starting on %s (log.level=%s store=%s universe=%s)", addr, cfg.Log.Level, cfg.Store.Driver, cfg.Universe.Mode)
	h.Spin()
}

func parseLevel(s string) hlog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return hlog.LevelDebug
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}
