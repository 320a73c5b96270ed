package cache

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// DefaultTokenListInterval is how often the background refresher reloads the
// provider's market list.
const DefaultTokenListInterval = 10 * time.Minute

// PriceFetcher fetches token market data from the price provider.
type PriceFetcher interface {
	GetMarkets(ctx context.Context) ([]domain.TokenMetadata, error)
	GetHistoryPrice(ctx context.Context, id string, date string) (float64, error)
}

// TokenListCache holds the provider's token/market list. Freshness is driven
// by a scheduled background refresh rather than per-request TTL checks; a
// failed refresh keeps the previous list.
type TokenListCache struct {
	fetcher PriceFetcher
	retry   resilience.RetryOptions
	logger  *logrus.Logger

	mu        sync.RWMutex
	tokens    []domain.TokenMetadata
	byAddress map[string]*domain.TokenMetadata // chain:canonicalAddress
	bySymbol  map[string]*domain.TokenMetadata // chain:SYMBOL
}

// NewTokenListCache creates an empty token list cache.
func NewTokenListCache(fetcher PriceFetcher, retry resilience.RetryOptions, logger *logrus.Logger) *TokenListCache {
	return &TokenListCache{
		fetcher:   fetcher,
		retry:     retry,
		logger:    logger,
		byAddress: make(map[string]*domain.TokenMetadata),
		bySymbol:  make(map[string]*domain.TokenMetadata),
	}
}

// Refresh reloads the market list. On failure the previous list is kept.
func (t *TokenListCache) Refresh(ctx context.Context) error {
	tokens, err := resilience.Retry(ctx, t.retry, t.fetcher.GetMarkets)
	if err != nil {
		return err
	}

	byAddress := make(map[string]*domain.TokenMetadata, len(tokens))
	bySymbol := make(map[string]*domain.TokenMetadata, len(tokens))
	for i := range tokens {
		tok := &tokens[i]
		byAddress[tok.Chain+":"+domain.CanonicalAddress(tok.Address)] = tok
		bySymbol[tok.Chain+":"+tok.Symbol] = tok
	}

	t.mu.Lock()
	t.tokens = tokens
	t.byAddress = byAddress
	t.bySymbol = bySymbol
	t.mu.Unlock()
	return nil
}

// Tokens returns the current list.
func (t *TokenListCache) Tokens() []domain.TokenMetadata {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.TokenMetadata, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// LookupByAddress finds a token by chain and address. The native sentinel
// address resolves through the chain's native symbol instead of an address
// match, since the sentinel is not a real contract.
func (t *TokenListCache) LookupByAddress(chain *domain.Chain, address string) (*domain.TokenMetadata, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if domain.EqualAddresses(address, domain.NativeTokenAddress) {
		tok, ok := t.bySymbol[chain.ID+":"+chain.NativeSymbol]
		return tok, ok
	}

	tok, ok := t.byAddress[chain.ID+":"+domain.CanonicalAddress(address)]
	return tok, ok
}

// LookupBySymbol finds a token by chain and symbol.
func (t *TokenListCache) LookupBySymbol(chain, symbol string) (*domain.TokenMetadata, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tok, ok := t.bySymbol[chain+":"+symbol]
	return tok, ok
}

// RunRefresher refreshes the list until ctx is done, sleeping a jittered
// interval between refreshes so multiple replicas do not hit the provider in
// lockstep. The first refresh happens immediately.
func (t *TokenListCache) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTokenListInterval
	}

	if err := t.Refresh(ctx); err != nil {
		t.logger.WithError(err).Warn("initial token list refresh failed")
	}

	timer := time.NewTimer(jittered(interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := t.Refresh(ctx); err != nil {
				t.logger.WithError(err).Warn("token list refresh failed, keeping previous list")
			}
			timer.Reset(jittered(interval))
		}
	}
}

// jittered stretches interval by up to 10%.
func jittered(interval time.Duration) time.Duration {
	return interval + rand.N(interval/10+1)
}

// HistoryPriceCache caches historical price points per (id, date).
// Historical prices never change, so entries have no TTL.
type HistoryPriceCache struct {
	cache   *Cache[float64]
	fetcher PriceFetcher
}

// NewHistoryPriceCache creates the historical price cache over fetcher.
func NewHistoryPriceCache(fetcher PriceFetcher, retry resilience.RetryOptions, metrics *observability.Metrics) *HistoryPriceCache {
	return &HistoryPriceCache{
		cache:   New[float64]("history_price", 0, retry, metrics),
		fetcher: fetcher,
	}
}

// Get returns the USD price of id at date (YYYY-MM-DD).
func (h *HistoryPriceCache) Get(ctx context.Context, id, date string) (float64, error) {
	key := id + ":" + date
	return h.cache.GetOrRefresh(ctx, key, func(ctx context.Context) (float64, error) {
		return h.fetcher.GetHistoryPrice(ctx, id, date)
	})
}
