package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Upserter is the narrow write contract the ingestion pipeline needs from a
// store: insert-or-update keyed by (symbol, asset_type).
type Upserter interface {
	UpsertMarketData(ctx context.Context, row MarketDataRow) error
}

// Reader lists stored rows for the read API.
type Reader interface {
	ListMarketData(ctx context.Context, f ListFilter) ([]MarketDataRow, error)
}

// MarketDataRow is the persisted form of one instrument. Symbol and AssetType
// form the unique key; every other column is overwritten on upsert.
type MarketDataRow struct {
	Symbol           string    `json:"symbol"`
	AssetType        string    `json:"asset_type"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePercentage float64   `json:"change_percentage"`
	MarketCap        float64   `json:"market_cap"`
	Volume           int64     `json:"volume"`
	Market           string    `json:"market"`
	Sector           string    `json:"sector"`
	LastUpdated      time.Time `json:"last_updated"`
}

type ListFilter struct {
	Market    string
	AssetType string
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = "data/market.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL CHECK (asset_type IN ('stock', 'etf', 'crypto')),
			name TEXT,
			price REAL,
			change REAL,
			change_percentage REAL,
			market_cap REAL,
			volume INTEGER,
			market TEXT,
			sector TEXT,
			last_updated TEXT,
			UNIQUE (symbol, asset_type)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_market_data_market ON market_data(market);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// UpsertMarketData writes row, replacing the non-key columns of an existing
// (symbol, asset_type) row. Writing the same row twice leaves the same state.
func (s *Store) UpsertMarketData(ctx context.Context, row MarketDataRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if row.Symbol == "" || row.AssetType == "" {
		return fmt.Errorf("upsert market data: symbol and asset_type are required")
	}
	if row.LastUpdated.IsZero() {
		row.LastUpdated = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO market_data (symbol, asset_type, name, price, change, change_percentage, market_cap, volume, market, sector, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, asset_type) DO UPDATE SET
			name=excluded.name,
			price=excluded.price,
			change=excluded.change,
			change_percentage=excluded.change_percentage,
			market_cap=excluded.market_cap,
			volume=excluded.volume,
			market=excluded.market,
			sector=excluded.sector,
			last_updated=excluded.last_updated`,
		row.Symbol, row.AssetType, row.Name, row.Price, row.Change, row.ChangePercentage, row.MarketCap, row.Volume, row.Market, row.Sector, row.LastUpdated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert market data %s/%s: %w", row.Symbol, row.AssetType, err)
	}
	return nil
}

func (s *Store) ListMarketData(ctx context.Context, f ListFilter) ([]MarketDataRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	query := `SELECT symbol, asset_type, name, price, change, change_percentage, market_cap, volume, market, sector, last_updated
		FROM market_data WHERE 1=1`
	var args []any
	if f.Market != "" {
		query += " AND market = ?"
		args = append(args, strings.ToUpper(f.Market))
	}
	if f.AssetType != "" {
		query += " AND asset_type = ?"
		args = append(args, strings.ToLower(f.AssetType))
	}
	query += " ORDER BY symbol, asset_type"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query market data: %w", err)
	}
	defer rows.Close()

	var out []MarketDataRow
	for rows.Next() {
		var (
			r                                 MarketDataRow
			name, market, sector, lastUpdated sql.NullString
			price, change, pct, mcap          sql.NullFloat64
			volume                            sql.NullInt64
		)
		if err := rows.Scan(&r.Symbol, &r.AssetType, &name, &price, &change, &pct, &mcap, &volume, &market, &sector, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan market data: %w", err)
		}
		r.Name = name.String
		r.Price = price.Float64
		r.Change = change.Float64
		r.ChangePercentage = pct.Float64
		r.MarketCap = mcap.Float64
		r.Volume = volume.Int64
		r.Market = market.String
		r.Sector = sector.String
		if lastUpdated.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, lastUpdated.String); err == nil {
				r.LastUpdated = ts
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows market data: %w", err)
	}
	return out, nil
}

// CountMarketData reports the number of stored rows.
func (s *Store) CountMarketData(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count market data: %w", err)
	}
	return n, nil
}
