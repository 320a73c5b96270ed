package domain

import "strings"

// NativeTokenAddress is the sentinel address representing a chain's native
// currency inside token-address-keyed data (balances, prices, decimals).
// It is never a real contract.
const NativeTokenAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// BaseTransferGas is the gas cost of a plain value transfer.
const BaseTransferGas = 21000

// Chain describes one supported network.
type Chain struct {
	// ID is the chain identifier used in API paths and cache keys ("ethereum").
	ID string

	// ValueUnit is the smallest denomination of the native currency ("wei").
	ValueUnit string

	// NativeSymbol is the ticker of the native currency ("ETH").
	NativeSymbol string

	// NativeDecimals is the decimals of the native currency (18 for EVM chains).
	NativeDecimals uint8

	// RPCEndpoints is the ordered failover list of JSON-RPC endpoint URLs.
	// Endpoints are tried in declared order, never randomized.
	RPCEndpoints []string

	// SwapRouters are known swap-router contract addresses on this chain.
	SwapRouters []string

	// SwapEventTopic is the first topic of the router's Swap log event.
	SwapEventTopic string

	// WrappedNativeToken, when set, is remapped to NativeTokenAddress in
	// balance responses so the UI keys native currency consistently.
	WrappedNativeToken string
}

// IsSwapRouter reports whether addr is one of the chain's known routers.
func (c *Chain) IsSwapRouter(addr string) bool {
	for _, r := range c.SwapRouters {
		if EqualAddresses(r, addr) {
			return true
		}
	}
	return false
}

// CanonicalAddress lowercases addr and strips everything but the canonical
// 20-byte (40 hex character) suffix. Comparisons between addresses from
// different upstreams must go through this form.
func CanonicalAddress(addr string) string {
	a := strings.ToLower(addr)
	if len(a) > 40 {
		a = a[len(a)-40:]
	}
	return a
}

// EqualAddresses compares two addresses in canonical 20-byte form.
func EqualAddresses(a, b string) bool {
	return CanonicalAddress(a) == CanonicalAddress(b)
}
