package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"market-data-ingest/internal/ingest"
	"market-data-ingest/internal/market"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Market   MarketConfig   `yaml:"market"`
	Universe UniverseConfig `yaml:"universe"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Persist  PersistConfig  `yaml:"persist"`
	Store    StoreConfig    `yaml:"store"`
	Lock     LockConfig     `yaml:"lock"`
	Push     PushConfig     `yaml:"push"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MarketConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
	FetchOverview    bool   `yaml:"fetch_overview"`
}

type UniverseConfig struct {
	// Mode is "static" or "listing".
	Mode       string         `yaml:"mode"`
	MaxSymbols int            `yaml:"max_symbols"`
	Symbols    []SymbolConfig `yaml:"symbols"`
}

type SymbolConfig struct {
	Symbol    string `yaml:"symbol"`
	Name      string `yaml:"name"`
	Exchange  string `yaml:"exchange"`
	AssetType string `yaml:"asset_type"`
}

// MarketSymbols converts the configured list. Unknown asset types fall back
// to stock.
func (u UniverseConfig) MarketSymbols() []market.Symbol {
	out := make([]market.Symbol, 0, len(u.Symbols))
	for _, s := range u.Symbols {
		at, ok := market.ParseAssetType(s.AssetType)
		if !ok {
			at = market.AssetStock
		}
		out = append(out, market.Symbol{
			Symbol:      s.Symbol,
			DisplayName: s.Name,
			Exchange:    market.ParseExchange(s.Exchange),
			AssetType:   at,
		})
	}
	return out
}

type IngestConfig struct {
	CallsPerWindow int  `yaml:"calls_per_window"`
	WindowSec      int  `yaml:"window_sec"`
	BatchSize      int  `yaml:"batch_size"`
	BatchDelaySec  int  `yaml:"batch_delay_sec"`
	IntervalSec    int  `yaml:"interval_sec"`
	ReportSummary  bool `yaml:"report_summary"`
}

type PersistConfig struct {
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "postgrest".
	Driver    string          `yaml:"driver"`
	Sqlite    SqliteConfig    `yaml:"sqlite"`
	PostgREST PostgRESTConfig `yaml:"postgrest"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type PostgRESTConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"service_key"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type LockConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	TTLSec   int    `yaml:"ttl_sec"`
}

type PushConfig struct {
	Dingtalk DingtalkConfig `yaml:"dingtalk"`
}

type DingtalkConfig struct {
	Webhook      string `yaml:"webhook"`
	Secret       string `yaml:"secret"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	OnlyFailures bool   `yaml:"only_failures"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Market: MarketConfig{
			RequestTimeoutMs: 10000,
			FetchOverview:    true,
		},
		Universe: UniverseConfig{
			Mode:       "static",
			MaxSymbols: 10,
		},
		Ingest: IngestConfig{
			CallsPerWindow: 5,
			WindowSec:      60,
			BatchSize:      5,
			BatchDelaySec:  0,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Sqlite: SqliteConfig{Path: "data/market.db"},
			PostgREST: PostgRESTConfig{
				TimeoutMs: 10000,
			},
		},
		Lock: LockConfig{
			Redis: RedisConfig{Key: "market-data-ingest:run", TTLSec: 1800},
		},
		Push: PushConfig{
			Dingtalk: DingtalkConfig{TimeoutMs: 5000, OnlyFailures: true},
		},
	}
}

// Load reads path over the defaults and applies env overrides. A missing file
// is fine for env-only deployments.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports missing credentials. It is separate from Load so the
// server can still start and answer the trigger with the error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Market.APIKey) == "" {
		return &ingest.ConfigError{Field: "ALPHA_VANTAGE_API_KEY", Msg: "Alpha Vantage API key not found"}
	}
	if c.Store.Driver == "postgrest" {
		if c.Store.PostgREST.URL == "" || c.Store.PostgREST.ServiceKey == "" {
			return &ingest.ConfigError{Field: "SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY", Msg: "Supabase credentials not found"}
		}
	}
	return nil
}

func (c *Config) check() error {
	switch c.Store.Driver {
	case "sqlite", "postgrest":
	default:
		return fmt.Errorf("invalid store.driver: %q", c.Store.Driver)
	}
	switch c.Universe.Mode {
	case "static", "listing":
	default:
		return fmt.Errorf("invalid universe.mode: %q", c.Universe.Mode)
	}
	if c.Ingest.CallsPerWindow < 0 || c.Ingest.WindowSec < 0 {
		return fmt.Errorf("invalid ingest quota: %d calls per %ds", c.Ingest.CallsPerWindow, c.Ingest.WindowSec)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Market.APIKey = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Store.PostgREST.URL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		cfg.Store.PostgREST.ServiceKey = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.Sqlite.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Lock.Redis.Addr = v
	}
	if v := os.Getenv("DINGTALK_WEBHOOK"); v != "" {
		cfg.Push.Dingtalk.Webhook = v
	}
	if v := os.Getenv("DINGTALK_SECRET"); v != "" {
		cfg.Push.Dingtalk.Secret = v
	}
	if v := os.Getenv("INGEST_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid INGEST_INTERVAL_SEC: %q", v)
		}
		cfg.Ingest.IntervalSec = n
	}
	return nil
}
