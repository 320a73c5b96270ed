package resilience

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/observability"
)

// EndpointTable holds the ordered RPC endpoint lists per chain.
// The order is fixed at construction; failover always walks it front to back.
type EndpointTable struct {
	endpoints map[string][]string
	logger    *logrus.Logger
	metrics   *observability.Metrics
}

// NewEndpointTable builds a table from chain ID to its declared endpoints.
func NewEndpointTable(endpoints map[string][]string, logger *logrus.Logger, metrics *observability.Metrics) *EndpointTable {
	table := make(map[string][]string, len(endpoints))
	for chain, urls := range endpoints {
		table[chain] = append([]string(nil), urls...)
	}
	return &EndpointTable{endpoints: table, logger: logger, metrics: metrics}
}

// Endpoints returns the declared endpoint list for chain, or ErrUnknownChain.
func (t *EndpointTable) Endpoints(chain string) ([]string, error) {
	urls, ok := t.endpoints[chain]
	if !ok || len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
	return urls, nil
}

// CallWithFailover runs fn against each of the chain's endpoints in declared
// order. Only ErrMalformedResponse advances to the next endpoint; any other
// error propagates without trying further endpoints. If every endpoint fails
// with a malformed response the call fails with ErrNoEndpoint.
func CallWithFailover[T any](t *EndpointTable, chain string, fn func(endpoint string) (T, error)) (T, error) {
	var zero T

	urls, err := t.Endpoints(chain)
	if err != nil {
		return zero, err
	}

	for i, url := range urls {
		v, err := fn(url)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrMalformedResponse) {
			return zero, err
		}
		t.metrics.ObserveFailover()
		if t.logger != nil {
			t.logger.WithFields(logrus.Fields{
				"chain":    chain,
				"endpoint": url,
				"attempt":  i + 1,
			}).WithError(err).Warn("endpoint returned malformed response, failing over")
		}
	}

	return zero, fmt.Errorf("%w: %s", ErrNoEndpoint, chain)
}
