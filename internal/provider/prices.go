package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wallet-backend/internal/domain"
)

// marketsPerPage is the provider's maximum page size for market listings.
const marketsPerPage = 250

// PriceClient reads token market data and historical prices from the price
// provider.
type PriceClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// PriceOption configures PriceClient.
type PriceOption func(*PriceClient)

// WithPriceTimeout sets the HTTP client timeout.
func WithPriceTimeout(d time.Duration) PriceOption {
	return func(c *PriceClient) {
		c.client.Timeout = d
	}
}

// WithPriceHTTPClient sets a custom http.Client.
func WithPriceHTTPClient(client *http.Client) PriceOption {
	return func(c *PriceClient) {
		c.client = client
	}
}

// NewPriceClient creates a client for the price provider.
func NewPriceClient(baseURL, apiKey string, opts ...PriceOption) *PriceClient {
	c := &PriceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type marketEntry struct {
	ID       string   `json:"id"`
	Chain    string   `json:"chain"`
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals uint8    `json:"decimals"`
	LogoURI  string   `json:"logoURI"`
	PriceUSD *float64 `json:"priceUsd"`
}

// GetMarkets returns the full market listing, walking pages until the
// provider returns a short page.
func (c *PriceClient) GetMarkets(ctx context.Context) ([]domain.TokenMetadata, error) {
	var all []domain.TokenMetadata

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/v1/markets?page=%d&perPage=%d", c.baseURL, page, marketsPerPage)

		var entries []marketEntry
		if err := getJSON(ctx, c.client, endpoint, c.apiKey, &entries); err != nil {
			return nil, err
		}

		for _, e := range entries {
			all = append(all, domain.TokenMetadata{
				ID:       e.ID,
				Chain:    e.Chain,
				Address:  e.Address,
				Symbol:   e.Symbol,
				Name:     e.Name,
				Decimals: e.Decimals,
				LogoURI:  e.LogoURI,
				Price:    e.PriceUSD,
			})
		}

		if len(entries) < marketsPerPage {
			return all, nil
		}
	}
}

type historyPriceResponse struct {
	PriceUSD float64 `json:"priceUsd"`
}

// GetHistoryPrice returns the USD price of the token id on date (YYYY-MM-DD).
func (c *PriceClient) GetHistoryPrice(ctx context.Context, id, date string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v1/coins/%s/history?date=%s",
		c.baseURL, url.PathEscape(id), url.QueryEscape(date))

	var out historyPriceResponse
	if err := getJSON(ctx, c.client, endpoint, c.apiKey, &out); err != nil {
		return 0, err
	}
	return out.PriceUSD, nil
}
