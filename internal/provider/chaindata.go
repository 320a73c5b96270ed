// Package provider implements HTTP clients for the external chain-data and
// price providers.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/resilience"
)

// DefaultTimeout bounds every provider HTTP round trip.
const DefaultTimeout = 30 * time.Second

// maxHistoryPages caps transaction history pagination so a provider that
// never reports the last page cannot spin us forever.
const maxHistoryPages = 50

// ChainDataClient reads balances and transaction history from the indexing
// provider. Failure classes are mapped to the resilience error taxonomy:
// HTTP 429 to ErrRateLimited, undecodable payloads to ErrMalformedResponse.
type ChainDataClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ChainDataOption configures ChainDataClient.
type ChainDataOption func(*ChainDataClient)

// WithChainDataTimeout sets the HTTP client timeout.
func WithChainDataTimeout(d time.Duration) ChainDataOption {
	return func(c *ChainDataClient) {
		c.client.Timeout = d
	}
}

// WithChainDataHTTPClient sets a custom http.Client.
func WithChainDataHTTPClient(client *http.Client) ChainDataOption {
	return func(c *ChainDataClient) {
		c.client = client
	}
}

// NewChainDataClient creates a client for the chain-data provider.
func NewChainDataClient(baseURL, apiKey string, opts ...ChainDataOption) *ChainDataClient {
	c := &ChainDataClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type balancesResponse struct {
	Balances []domain.TokenBalance `json:"balances"`
}

// GetBalances returns every token balance the provider indexed for address.
func (c *ChainDataClient) GetBalances(ctx context.Context, chain, address string) ([]domain.TokenBalance, error) {
	endpoint := fmt.Sprintf("%s/v1/%s/address/%s/balances",
		c.baseURL, url.PathEscape(chain), url.PathEscape(address))

	var out balancesResponse
	if err := getJSON(ctx, c.client, endpoint, c.apiKey, &out); err != nil {
		return nil, err
	}
	return out.Balances, nil
}

type transactionsResponse struct {
	Transactions []domain.RawTransaction `json:"transactions"`
	HasMore      bool                    `json:"hasMore"`
}

// GetTransactions returns the address's transaction history, walking the
// provider's pages until it reports no more. Providers occasionally repeat a
// transaction across page boundaries, so results are deduplicated by hash
// with first occurrence winning.
func (c *ChainDataClient) GetTransactions(ctx context.Context, chain, address string) ([]domain.RawTransaction, error) {
	seen := make(map[string]struct{})
	var all []domain.RawTransaction

	for page := 1; page <= maxHistoryPages; page++ {
		endpoint := fmt.Sprintf("%s/v1/%s/address/%s/transactions?page=%d",
			c.baseURL, url.PathEscape(chain), url.PathEscape(address), page)

		var out transactionsResponse
		if err := getJSON(ctx, c.client, endpoint, c.apiKey, &out); err != nil {
			return nil, err
		}

		for _, tx := range out.Transactions {
			if _, dup := seen[tx.Hash]; dup {
				continue
			}
			seen[tx.Hash] = struct{}{}
			all = append(all, tx)
		}

		if !out.HasMore {
			return all, nil
		}
	}

	return nil, fmt.Errorf("transaction history did not terminate after %d pages: %w",
		maxHistoryPages, resilience.ErrMalformedResponse)
}

// getJSON performs one authenticated GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("GET %s: HTTP 429: %w", endpoint, resilience.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d: %w", endpoint, resp.StatusCode, resilience.ErrMalformedResponse)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: unmarshal response: %v: %w", endpoint, err, resilience.ErrMalformedResponse)
	}
	return nil
}
