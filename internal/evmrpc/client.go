// Package evmrpc implements the JSON-RPC 2.0 client for chain node access.
package evmrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"wallet-backend/internal/resilience"
)

// DefaultTimeout bounds every RPC HTTP round trip.
const DefaultTimeout = 30 * time.Second

// Client talks JSON-RPC 2.0 to a single endpoint. Failure classes are mapped
// to the resilience error taxonomy: HTTP 429 to ErrRateLimited, undecodable
// payloads to ErrMalformedResponse. Everything else propagates as-is.
type Client struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client for one RPC endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC call and decodes the result into result.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: HTTP 429: %w", method, resilience.ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d: %w", method, resp.StatusCode, resilience.ErrMalformedResponse)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("%s: unmarshal response: %v: %w", method, err, resilience.ErrMalformedResponse)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%s: unmarshal result: %v: %w", method, err, resilience.ErrMalformedResponse)
		}
	}

	return nil
}

// GasPrice returns the current gas price in the chain's value unit.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var hex string
	if err := c.call(ctx, "eth_gasPrice", nil, &hex); err != nil {
		return nil, err
	}
	return parseBigQuantity(hex)
}

// TransactionCount returns the nonce of an address at the latest block.
func (c *Client) TransactionCount(ctx context.Context, address string) (uint64, error) {
	var hex string
	if err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, "latest"}, &hex); err != nil {
		return 0, err
	}
	return parseQuantity(hex)
}

// EstimateGas estimates the gas needed to execute msg.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var hex string
	if err := c.call(ctx, "eth_estimateGas", []interface{}{msg}, &hex); err != nil {
		return 0, err
	}
	return parseQuantity(hex)
}

// TransactionByHash returns a pending or mined transaction, or nil when the
// node does not know the hash.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	var tx *Transaction
	if err := c.call(ctx, "eth_getTransactionByHash", []interface{}{hash}, &tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SendRawTransaction submits a signed transaction and returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx string) (string, error) {
	var hash string
	if err := c.call(ctx, "eth_sendRawTransaction", []interface{}{signedTx}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// Call executes a read-only contract call at the latest block and returns
// the raw hex return data.
func (c *Client) Call(ctx context.Context, msg CallMsg) (string, error) {
	var data string
	if err := c.call(ctx, "eth_call", []interface{}{msg, "latest"}, &data); err != nil {
		return "", err
	}
	return data, nil
}

// Code returns the contract bytecode at address ("0x" for externally owned
// accounts).
func (c *Client) Code(ctx context.Context, address string) (string, error) {
	var code string
	if err := c.call(ctx, "eth_getCode", []interface{}{address, "latest"}, &code); err != nil {
		return "", err
	}
	return code, nil
}

// parseQuantity decodes a 0x-prefixed hex quantity into uint64.
func parseQuantity(hex string) (uint64, error) {
	v, err := parseBigQuantity(hex)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("quantity %s overflows uint64: %w", hex, resilience.ErrMalformedResponse)
	}
	return v.Uint64(), nil
}

// parseBigQuantity decodes a 0x-prefixed hex quantity into big.Int.
func parseBigQuantity(hex string) (*big.Int, error) {
	s := strings.TrimPrefix(hex, "0x")
	if s == "" {
		return nil, fmt.Errorf("empty quantity: %w", resilience.ErrMalformedResponse)
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q: %w", hex, resilience.ErrMalformedResponse)
	}
	return v, nil
}
