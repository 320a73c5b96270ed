package cache

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// DecimalsCacheSize bounds the decimals cache. Decimals are immutable
// on-chain so entries carry no TTL; the LRU bound keeps long-lived processes
// from growing without limit across many distinct tokens.
const DecimalsCacheSize = 10000

// decimalsSelector is the 4-byte selector of ERC20 decimals().
const decimalsSelector = "0x313ce567"

// ContractCaller executes read-only contract calls.
type ContractCaller interface {
	Call(ctx context.Context, chain string, msg evmrpc.CallMsg) (string, error)
}

// DecimalsCache caches ERC20 token decimals per (chain, token address).
// The native sentinel address resolves from chain config without an
// upstream call.
type DecimalsCache struct {
	caller  ContractCaller
	chains  map[string]*domain.Chain
	retry   resilience.RetryOptions
	metrics *observability.Metrics

	entries *lru.Cache[string, uint8]
	group   singleflight.Group
}

// NewDecimalsCache creates the decimals cache over caller.
func NewDecimalsCache(caller ContractCaller, chains map[string]*domain.Chain, retry resilience.RetryOptions, metrics *observability.Metrics) (*DecimalsCache, error) {
	entries, err := lru.New[string, uint8](DecimalsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create decimals lru: %w", err)
	}
	return &DecimalsCache{
		caller:  caller,
		chains:  chains,
		retry:   retry,
		metrics: metrics,
		entries: entries,
	}, nil
}

// Decimals returns the decimals of token on chain, fetching once per key.
func (d *DecimalsCache) Decimals(ctx context.Context, chain, token string) (uint8, error) {
	if domain.EqualAddresses(token, domain.NativeTokenAddress) {
		cfg, ok := d.chains[chain]
		if !ok {
			return 0, fmt.Errorf("%w: %s", resilience.ErrUnknownChain, chain)
		}
		return cfg.NativeDecimals, nil
	}

	key := chain + ":" + domain.CanonicalAddress(token)
	if v, ok := d.entries.Get(key); ok {
		d.metrics.ObserveCacheHit("decimals")
		return v, nil
	}
	d.metrics.ObserveCacheMiss("decimals")

	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		dec, err := resilience.Retry(ctx, d.retry, func(ctx context.Context) (uint8, error) {
			return d.fetch(ctx, chain, token)
		})
		if err != nil {
			return nil, err
		}
		d.entries.Add(key, dec)
		return dec, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint8), nil
}

// fetch calls decimals() on the token contract.
func (d *DecimalsCache) fetch(ctx context.Context, chain, token string) (uint8, error) {
	data, err := d.caller.Call(ctx, chain, evmrpc.CallMsg{To: token, Data: decimalsSelector})
	if err != nil {
		return 0, err
	}
	return decodeDecimals(data)
}

// decodeDecimals parses the 32-byte uint returned by decimals().
func decodeDecimals(data string) (uint8, error) {
	s := strings.TrimPrefix(data, "0x")
	if s == "" {
		return 0, fmt.Errorf("empty decimals return data: %w", resilience.ErrMalformedResponse)
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return 0, fmt.Errorf("invalid decimals return data %q: %w", data, resilience.ErrMalformedResponse)
	}
	if !v.IsUint64() || v.Uint64() > 255 {
		return 0, fmt.Errorf("decimals out of range: %s: %w", v, resilience.ErrMalformedResponse)
	}
	return uint8(v.Uint64()), nil
}
