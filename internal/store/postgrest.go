package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ConflictTarget must match the table's unique constraint exactly, otherwise
// the hosted store inserts duplicates instead of merging.
const ConflictTarget = "symbol,asset_type"

// HTTPClient is the subset of *http.Client the REST store uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PostgREST writes rows to a hosted database through its REST interface.
type PostgREST struct {
	baseURL    string
	serviceKey string
	table      string
	client     HTTPClient
}

type postgrestRow struct {
	Symbol           string  `json:"symbol"`
	AssetType        string  `json:"asset_type"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercentage float64 `json:"change_percentage"`
	MarketCap        float64 `json:"market_cap"`
	Volume           int64   `json:"volume"`
	Market           string  `json:"market"`
	Sector           string  `json:"sector"`
	LastUpdated      string  `json:"last_updated"`
}

func NewPostgREST(baseURL, serviceKey string, timeout time.Duration, client HTTPClient) *PostgREST {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PostgREST{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		table:      "market_data",
		client:     client,
	}
}

func (p *PostgREST) UpsertMarketData(ctx context.Context, row MarketDataRow) error {
	if row.Symbol == "" || row.AssetType == "" {
		return fmt.Errorf("upsert market data: symbol and asset_type are required")
	}
	if row.LastUpdated.IsZero() {
		row.LastUpdated = time.Now()
	}
	body, err := json.Marshal(toPostgrestRow(row))
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	u := p.baseURL + "/rest/v1/" + p.table + "?on_conflict=" + url.QueryEscape(ConflictTarget)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	p.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert market data %s/%s: %w", row.Symbol, row.AssetType, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return fmt.Errorf("upsert market data %s/%s -> %d: %s", row.Symbol, row.AssetType, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func (p *PostgREST) ListMarketData(ctx context.Context, f ListFilter) ([]MarketDataRow, error) {
	q := url.Values{}
	q.Set("select", "symbol,asset_type,name,price,change,change_percentage,market_cap,volume,market,sector,last_updated")
	q.Set("order", "symbol.asc,asset_type.asc")
	if f.Market != "" {
		q.Set("market", "eq."+strings.ToUpper(f.Market))
	}
	if f.AssetType != "" {
		q.Set("asset_type", "eq."+strings.ToLower(f.AssetType))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/rest/v1/"+p.table+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	p.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query market data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("query market data -> %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	// Nullable columns decode as zero values.
	var raw []struct {
		Symbol           string   `json:"symbol"`
		AssetType        string   `json:"asset_type"`
		Name             *string  `json:"name"`
		Price            *float64 `json:"price"`
		Change           *float64 `json:"change"`
		ChangePercentage *float64 `json:"change_percentage"`
		MarketCap        *float64 `json:"market_cap"`
		Volume           *float64 `json:"volume"`
		Market           *string  `json:"market"`
		Sector           *string  `json:"sector"`
		LastUpdated      *string  `json:"last_updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode market data: %w", err)
	}
	out := make([]MarketDataRow, 0, len(raw))
	for _, r := range raw {
		row := MarketDataRow{
			Symbol:           r.Symbol,
			AssetType:        r.AssetType,
			Name:             deref(r.Name),
			Price:            deref(r.Price),
			Change:           deref(r.Change),
			ChangePercentage: deref(r.ChangePercentage),
			MarketCap:        deref(r.MarketCap),
			Volume:           int64(deref(r.Volume)),
			Market:           deref(r.Market),
			Sector:           deref(r.Sector),
		}
		if ts := deref(r.LastUpdated); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				row.LastUpdated = t
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (p *PostgREST) authorize(req *http.Request) {
	req.Header.Set("apikey", p.serviceKey)
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
}

func toPostgrestRow(r MarketDataRow) postgrestRow {
	return postgrestRow{
		Symbol:           r.Symbol,
		AssetType:        r.AssetType,
		Name:             r.Name,
		Price:            r.Price,
		Change:           r.Change,
		ChangePercentage: r.ChangePercentage,
		MarketCap:        r.MarketCap,
		Volume:           r.Volume,
		Market:           r.Market,
		Sector:           r.Sector,
		LastUpdated:      r.LastUpdated.UTC().Format(time.RFC3339Nano),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
