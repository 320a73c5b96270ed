package cache

import (
	"context"
	"fmt"
	"time"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// BalancesTTL is how long a balance listing stays fresh.
const BalancesTTL = 60 * time.Second

// BalanceFetcher fetches the raw balance listing for an address.
type BalanceFetcher interface {
	GetBalances(ctx context.Context, chain, address string) ([]domain.TokenBalance, error)
}

// BalanceCache caches balance listings per (chain, address) and applies the
// chain's wrapped-native remap after each fetch, so callers always see the
// native sentinel address instead of the wrapped token contract.
type BalanceCache struct {
	cache   *Cache[[]domain.TokenBalance]
	fetcher BalanceFetcher
	chains  map[string]*domain.Chain
}

// NewBalanceCache creates the balances cache over fetcher.
func NewBalanceCache(fetcher BalanceFetcher, chains map[string]*domain.Chain, retry resilience.RetryOptions, metrics *observability.Metrics) *BalanceCache {
	return &BalanceCache{
		cache:   New[[]domain.TokenBalance]("balances", BalancesTTL, retry, metrics),
		fetcher: fetcher,
		chains:  chains,
	}
}

// Get returns the (possibly cached) balance listing for address on chain.
func (b *BalanceCache) Get(ctx context.Context, chain, address string) ([]domain.TokenBalance, error) {
	cfg, ok := b.chains[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", resilience.ErrUnknownChain, chain)
	}

	key := chain + ":" + domain.CanonicalAddress(address)
	return b.cache.GetOrRefresh(ctx, key, func(ctx context.Context) ([]domain.TokenBalance, error) {
		balances, err := b.fetcher.GetBalances(ctx, chain, address)
		if err != nil {
			return nil, err
		}
		return remapWrappedNative(cfg, balances), nil
	})
}

// remapWrappedNative substitutes the chain's wrapped-native-token address
// with the native sentinel. Per-chain configured, no general rule.
func remapWrappedNative(cfg *domain.Chain, balances []domain.TokenBalance) []domain.TokenBalance {
	if cfg.WrappedNativeToken == "" {
		return balances
	}
	out := make([]domain.TokenBalance, len(balances))
	for i, bal := range balances {
		if domain.EqualAddresses(bal.TokenAddress, cfg.WrappedNativeToken) {
			bal.TokenAddress = domain.NativeTokenAddress
			bal.Symbol = cfg.NativeSymbol
		}
		out[i] = bal
	}
	return out
}
