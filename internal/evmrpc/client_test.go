package evmrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"wallet-backend/internal/resilience"
)

func rpcServer(t *testing.T, handler func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(req),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_GasPrice(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "eth_gasPrice" {
			t.Errorf("expected method eth_gasPrice, got %s", req.Method)
		}
		return "0x3b9aca00" // 1 gwei
	})
	defer server.Close()

	client := NewClient(server.URL)
	price, err := client.GasPrice(context.Background())
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}

	if price.String() != "1000000000" {
		t.Errorf("expected 1000000000, got %s", price)
	}
}

func TestClient_TransactionCount(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "eth_getTransactionCount" {
			t.Errorf("expected method eth_getTransactionCount, got %s", req.Method)
		}
		if req.Params[0] != "0xabc" || req.Params[1] != "latest" {
			t.Errorf("unexpected params: %v", req.Params)
		}
		return "0x2a"
	})
	defer server.Close()

	client := NewClient(server.URL)
	nonce, err := client.TransactionCount(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("TransactionCount: %v", err)
	}

	if nonce != 42 {
		t.Errorf("expected nonce 42, got %d", nonce)
	}
}

func TestClient_RateLimitedClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GasPrice(context.Background())
	if !errors.Is(err, resilience.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestClient_MalformedClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GasPrice(context.Background())
	if !errors.Is(err, resilience.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClient_RPCErrorNotRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32000, "message": "execution reverted"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.EstimateGas(context.Background(), CallMsg{To: "0xabc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, resilience.ErrRateLimited) || errors.Is(err, resilience.ErrMalformedResponse) {
		t.Errorf("RPC errors must not be classified as retriable/failover: %v", err)
	}
}

func TestChainClient_FailoverToSecondEndpoint(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer bad.Close()

	var goodCalls atomic.Int64
	good := rpcServer(t, func(req rpcRequest) interface{} {
		goodCalls.Add(1)
		return "0x1"
	})
	defer good.Close()

	cc := NewChainClient(map[string][]string{
		"ethereum": {bad.URL, good.URL},
	}, nil, nil)

	price, err := cc.GasPrice(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}

	if price.Int64() != 1 {
		t.Errorf("expected 1, got %s", price)
	}

	if goodCalls.Load() != 1 {
		t.Errorf("expected exactly one call to the healthy endpoint, got %d", goodCalls.Load())
	}
}

func TestChainClient_UnknownChain(t *testing.T) {
	cc := NewChainClient(map[string][]string{}, nil, nil)

	_, err := cc.GasPrice(context.Background(), "ethereum")
	if !errors.Is(err, resilience.ErrUnknownChain) {
		t.Errorf("expected ErrUnknownChain, got %v", err)
	}
}
