package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"market-data-ingest/internal/market"
)

// ErrUnavailable means the universe could not be resolved at all.
var ErrUnavailable = errors.New("universe unavailable")

// Provider resolves the symbols one ingestion run will process.
type Provider interface {
	Resolve(ctx context.Context) ([]market.Symbol, error)
}

// DefaultSymbols is the fixed large-cap set used for low-volume deployments.
var DefaultSymbols = []market.Symbol{
	{Symbol: "AAPL", DisplayName: "Apple Inc.", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "GOOGL", DisplayName: "Alphabet Inc.", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "MSFT", DisplayName: "Microsoft Corporation", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "AMZN", DisplayName: "Amazon.com, Inc.", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "TSLA", DisplayName: "Tesla, Inc.", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "META", DisplayName: "Meta Platforms, Inc.", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "NVDA", DisplayName: "NVIDIA Corporation", Exchange: market.ExchangeNASDAQ, AssetType: market.AssetStock},
	{Symbol: "JPM", DisplayName: "JPMorgan Chase & Co.", Exchange: market.ExchangeNYSE, AssetType: market.AssetStock},
	{Symbol: "V", DisplayName: "Visa Inc.", Exchange: market.ExchangeNYSE, AssetType: market.AssetStock},
	{Symbol: "WMT", DisplayName: "Walmart Inc.", Exchange: market.ExchangeNYSE, AssetType: market.AssetStock},
}

type Static struct {
	symbols []market.Symbol
}

// NewStatic returns a fixed universe. An empty list falls back to DefaultSymbols.
// Entries without a symbol are dropped, duplicates keep the first occurrence.
func NewStatic(symbols []market.Symbol) *Static {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	out := make([]market.Symbol, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
		if s.Symbol == "" {
			continue
		}
		if _, dup := seen[s.Symbol]; dup {
			continue
		}
		seen[s.Symbol] = struct{}{}
		if s.DisplayName == "" {
			s.DisplayName = s.Symbol
		}
		if s.Exchange == "" {
			s.Exchange = market.ExchangeOther
		}
		if s.AssetType == "" {
			s.AssetType = market.AssetStock
		}
		out = append(out, s)
	}
	return &Static{symbols: out}
}

func (s *Static) Resolve(_ context.Context) ([]market.Symbol, error) {
	if len(s.symbols) == 0 {
		return nil, fmt.Errorf("%w: static list is empty", ErrUnavailable)
	}
	out := make([]market.Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}

// ListingSource returns the raw exchange listing csv.
type ListingSource interface {
	Listing(ctx context.Context) ([]byte, error)
}

// Listing builds the universe from a full exchange listing, keeping active
// NYSE/NASDAQ instruments up to MaxSymbols.
type Listing struct {
	source     ListingSource
	maxSymbols int
}

func NewListing(source ListingSource, maxSymbols int) *Listing {
	return &Listing{source: source, maxSymbols: maxSymbols}
}

func (l *Listing) Resolve(ctx context.Context) ([]market.Symbol, error) {
	body, err := l.source.Listing(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty listing payload", ErrUnavailable)
	}
	symbols, skipped := ParseListing(body, l.maxSymbols)
	if skipped > 0 {
		hlog.CtxDebugf(ctx, "listing: skipped %d malformed lines", skipped)
	}
	hlog.CtxInfof(ctx, "listing: resolved %d symbols (max=%d)", len(symbols), l.maxSymbols)
	return symbols, nil
}

// ParseListing parses LISTING_STATUS rows:
//
//	symbol,name,exchange,assetType,ipoDate[,delistingDate],status
//
// The first row is the header. Status is always the last column. Lines that
// cannot be parsed are skipped and counted; max <= 0 means no limit.
func ParseListing(body []byte, max int) ([]market.Symbol, int) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	var (
		out     []market.Symbol
		skipped int
		header  = true
		seen    = make(map[string]struct{})
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			break
		}
		if header {
			header = false
			continue
		}
		s, ok := parseListingRecord(rec)
		if !ok {
			skipped++
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(rec[len(rec)-1]), "Active") {
			continue
		}
		if s.Exchange != market.ExchangeNYSE && s.Exchange != market.ExchangeNASDAQ {
			continue
		}
		if _, dup := seen[s.Symbol]; dup {
			continue
		}
		seen[s.Symbol] = struct{}{}
		out = append(out, s)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, skipped
}

func parseListingRecord(rec []string) (market.Symbol, bool) {
	if len(rec) < 6 {
		return market.Symbol{}, false
	}
	sym := strings.ToUpper(strings.TrimSpace(rec[0]))
	if sym == "" {
		return market.Symbol{}, false
	}
	assetType, ok := market.ParseAssetType(rec[3])
	if !ok {
		return market.Symbol{}, false
	}
	name := strings.TrimSpace(rec[1])
	if name == "" {
		name = sym
	}
	return market.Symbol{
		Symbol:      sym,
		DisplayName: name,
		Exchange:    market.ParseExchange(rec[2]),
		AssetType:   assetType,
	}, true
}
