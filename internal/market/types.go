package market

import (
	"fmt"
	"strings"
	"time"
)

type Exchange string

const (
	ExchangeNASDAQ Exchange = "NASDAQ"
	ExchangeNYSE   Exchange = "NYSE"
	ExchangeOther  Exchange = "OTHER"
)

// ParseExchange maps a listing exchange column onto the tracked exchanges.
// Anything that is not NASDAQ or NYSE is OTHER.
func ParseExchange(s string) Exchange {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NASDAQ":
		return ExchangeNASDAQ
	case "NYSE":
		return ExchangeNYSE
	default:
		return ExchangeOther
	}
}

type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetETF    AssetType = "etf"
	AssetCrypto AssetType = "crypto"
)

// ParseAssetType accepts the provider spellings ("Stock", "ETF") and the
// stored enum values.
func ParseAssetType(s string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock":
		return AssetStock, true
	case "etf":
		return AssetETF, true
	case "crypto":
		return AssetCrypto, true
	}
	return "", false
}

// Symbol describes one instrument of the universe. It is resolved once per
// run and read-only afterwards.
type Symbol struct {
	Symbol      string    `json:"symbol" yaml:"symbol"`
	DisplayName string    `json:"display_name" yaml:"name"`
	Exchange    Exchange  `json:"exchange" yaml:"exchange"`
	AssetType   AssetType `json:"asset_type" yaml:"asset_type"`
}

type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	AsOf          time.Time `json:"as_of"`
}

// Overview is the company profile part of a row: name, sector, market cap.
type Overview struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"market_cap"`
}

// FetchError is returned for any failed provider call for a single symbol.
type FetchError struct {
	Symbol string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
