package evmrpc

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// ChainClient fans RPC calls out across each chain's declared endpoint list.
// Rate-limited responses are retried on the same endpoint; malformed
// responses advance to the next endpoint in declared order.
type ChainClient struct {
	table   *resilience.EndpointTable
	clients map[string]*Client // endpoint URL -> client
	retry   resilience.RetryOptions
	metrics *observability.Metrics
}

// NewChainClient builds a ChainClient over the per-chain endpoint lists.
func NewChainClient(endpoints map[string][]string, logger *logrus.Logger, metrics *observability.Metrics, opts ...ClientOption) *ChainClient {
	clients := make(map[string]*Client)
	for _, urls := range endpoints {
		for _, url := range urls {
			if _, ok := clients[url]; !ok {
				clients[url] = NewClient(url, opts...)
			}
		}
	}
	return &ChainClient{
		table:   resilience.NewEndpointTable(endpoints, logger, metrics),
		clients: clients,
		retry:   resilience.DefaultRetryOptions(logger, metrics),
		metrics: metrics,
	}
}

// do runs fn through retry (per endpoint) and failover (across endpoints).
func do[T any](ctx context.Context, cc *ChainClient, chain string, fn func(ctx context.Context, c *Client) (T, error)) (T, error) {
	return resilience.CallWithFailover(cc.table, chain, func(endpoint string) (T, error) {
		cc.metrics.ObserveUpstreamCall("rpc", chain)
		start := time.Now()
		v, err := resilience.Retry(ctx, cc.retry, func(ctx context.Context) (T, error) {
			return fn(ctx, cc.clients[endpoint])
		})
		cc.metrics.ObserveUpstreamLatency("rpc", time.Since(start).Seconds())
		if err != nil {
			cc.metrics.ObserveUpstreamError("rpc", chain)
		}
		return v, err
	})
}

// GasPrice returns the chain's current gas price.
func (cc *ChainClient) GasPrice(ctx context.Context, chain string) (*big.Int, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (*big.Int, error) {
		return c.GasPrice(ctx)
	})
}

// TransactionCount returns the nonce for address on chain.
func (cc *ChainClient) TransactionCount(ctx context.Context, chain, address string) (uint64, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (uint64, error) {
		return c.TransactionCount(ctx, address)
	})
}

// EstimateGas estimates gas for msg on chain.
func (cc *ChainClient) EstimateGas(ctx context.Context, chain string, msg CallMsg) (uint64, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (uint64, error) {
		return c.EstimateGas(ctx, msg)
	})
}

// TransactionByHash returns the node's view of a transaction.
func (cc *ChainClient) TransactionByHash(ctx context.Context, chain, hash string) (*Transaction, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (*Transaction, error) {
		return c.TransactionByHash(ctx, hash)
	})
}

// SendRawTransaction submits a signed transaction to chain.
func (cc *ChainClient) SendRawTransaction(ctx context.Context, chain, signedTx string) (string, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (string, error) {
		return c.SendRawTransaction(ctx, signedTx)
	})
}

// Call executes a read-only contract call on chain.
func (cc *ChainClient) Call(ctx context.Context, chain string, msg CallMsg) (string, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (string, error) {
		return c.Call(ctx, msg)
	})
}

// Code returns the bytecode at address on chain.
func (cc *ChainClient) Code(ctx context.Context, chain, address string) (string, error) {
	return do(ctx, cc, chain, func(ctx context.Context, c *Client) (string, error) {
		return c.Code(ctx, address)
	})
}
