package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAlphaVantageURL = "https://www.alphavantage.co/query"

// Listing payloads run to a few MB; quote bodies are tiny.
const maxBodyBytes = 32 << 20

var errMissingQuote = errors.New("response has no quote fields")

// HTTPClient is the subset of *http.Client used by the providers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type AlphaVantage struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  HTTPClient
	now     func() time.Time
}

type Option func(*AlphaVantage)

func WithBaseURL(u string) Option {
	return func(p *AlphaVantage) {
		if u != "" {
			p.baseURL = u
		}
	}
}

func WithHTTPClient(c HTTPClient) Option {
	return func(p *AlphaVantage) {
		if c != nil {
			p.client = c
		}
	}
}

// WithTimeout bounds every single provider call.
func WithTimeout(d time.Duration) Option {
	return func(p *AlphaVantage) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewAlphaVantage(apiKey string, opts ...Option) *AlphaVantage {
	p := &AlphaVantage{
		baseURL: defaultAlphaVantageURL,
		apiKey:  apiKey,
		timeout: 10 * time.Second,
		client:  &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type globalQuoteResp struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

type overviewResp struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Sector               string `json:"Sector"`
	MarketCapitalization string `json:"MarketCapitalization"`
	Note                 string `json:"Note"`
	Information          string `json:"Information"`
	ErrorMessage         string `json:"Error Message"`
}

// Quote fetches GLOBAL_QUOTE for one symbol. Every failure is a *FetchError.
func (p *AlphaVantage) Quote(ctx context.Context, symbol string) (Quote, error) {
	body, err := p.get(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}})
	if err != nil {
		return Quote{}, &FetchError{Symbol: symbol, Cause: err}
	}

	var payload globalQuoteResp
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, &FetchError{Symbol: symbol, Cause: fmt.Errorf("decode quote: %w", err)}
	}
	gq := payload.GlobalQuote
	if gq["01. symbol"] == "" || gq["05. price"] == "" {
		if msg := providerMessage(payload.Note, payload.Information, payload.ErrorMessage); msg != "" {
			return Quote{}, &FetchError{Symbol: symbol, Cause: fmt.Errorf("%w: %s", errMissingQuote, msg)}
		}
		return Quote{}, &FetchError{Symbol: symbol, Cause: errMissingQuote}
	}

	return Quote{
		Symbol:        strings.ToUpper(gq["01. symbol"]),
		Price:         parseNonNegative(gq["05. price"]),
		Change:        parseFloat(gq["09. change"]),
		ChangePercent: parsePercent(gq["10. change percent"]),
		Volume:        parseVolume(gq["06. volume"]),
		AsOf:          p.now().UTC(),
	}, nil
}

// Overview fetches the company profile for one symbol.
func (p *AlphaVantage) Overview(ctx context.Context, symbol string) (Overview, error) {
	body, err := p.get(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}})
	if err != nil {
		return Overview{}, &FetchError{Symbol: symbol, Cause: err}
	}
	var payload overviewResp
	if err := json.Unmarshal(body, &payload); err != nil {
		return Overview{}, &FetchError{Symbol: symbol, Cause: fmt.Errorf("decode overview: %w", err)}
	}
	if payload.Symbol == "" {
		cause := errors.New("response has no overview fields")
		if msg := providerMessage(payload.Note, payload.Information, payload.ErrorMessage); msg != "" {
			cause = fmt.Errorf("%w: %s", cause, msg)
		}
		return Overview{}, &FetchError{Symbol: symbol, Cause: cause}
	}
	return Overview{
		Symbol:    payload.Symbol,
		Name:      payload.Name,
		Sector:    payload.Sector,
		MarketCap: parseNonNegative(payload.MarketCapitalization),
	}, nil
}

// Listing returns the raw LISTING_STATUS csv.
func (p *AlphaVantage) Listing(ctx context.Context) ([]byte, error) {
	body, err := p.get(ctx, url.Values{"function": {"LISTING_STATUS"}})
	if err != nil {
		return nil, fmt.Errorf("listing status: %w", err)
	}
	return body, nil
}

func (p *AlphaVantage) get(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("apikey", p.apiKey)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request alphavantage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("alphavantage %s -> %d: %s", params.Get("function"), resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read alphavantage: %w", err)
	}
	return body, nil
}

func providerMessage(msgs ...string) string {
	for _, m := range msgs {
		if m = strings.TrimSpace(m); m != "" {
			return m
		}
	}
	return ""
}
