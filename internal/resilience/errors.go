// Package resilience provides the retry and RPC-failover wrappers every
// upstream call goes through.
package resilience

import "errors"

// Upstream failure classes. Wrap the concrete cause with %w so callers can
// still read the underlying message.
var (
	// ErrRateLimited marks a response the upstream refused due to rate
	// limiting. Retried transparently; surfaced only when retries exhaust.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrMalformedResponse marks a response that could not be decoded.
	// Triggers RPC failover to the next endpoint.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrNoEndpoint is returned when every endpoint for a chain failed
	// with a malformed response.
	ErrNoEndpoint = errors.New("no endpoint available for chain")

	// ErrUnknownChain is returned for a chain with no configured endpoints.
	ErrUnknownChain = errors.New("unknown chain")
)
