package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/auth"
	"wallet-backend/internal/domain"
	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/resilience"
)

const goodToken = "valid-token"

type stubAuth struct{}

func (stubAuth) IssueToken(ctx context.Context, publicKey, isoTimestamp string, signature []byte) (string, error) {
	if publicKey == "bad" {
		return "", auth.ErrInvalidSignature
	}
	return goodToken, nil
}

func (stubAuth) ValidateToken(token string) (*domain.SessionClaims, error) {
	if token != goodToken {
		return nil, auth.ErrInvalidToken
	}
	return &domain.SessionClaims{PublicKey: "pubkey", Address: "0x1111111111111111111111111111111111111111"}, nil
}

type stubBalances struct {
	err error
}

func (s stubBalances) Get(ctx context.Context, chain, address string) ([]domain.TokenBalance, error) {
	if s.err != nil {
		return nil, s.err
	}
	if chain != "ethereum" {
		return nil, fmt.Errorf("%w: %s", resilience.ErrUnknownChain, chain)
	}
	return []domain.TokenBalance{{TokenAddress: "0x1", Symbol: "USDC", Balance: "100"}}, nil
}

type stubHistory struct{}

func (stubHistory) GetTransactions(ctx context.Context, chain, address string) ([]domain.RawTransaction, error) {
	return []domain.RawTransaction{
		{Hash: "0xa", From: address, To: "0x2", Value: "5", GasUsed: domain.BaseTransferGas},
	}, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, chain *domain.Chain, owner string, tx *domain.RawTransaction) (*domain.ClassifiedTransaction, error) {
	return &domain.ClassifiedTransaction{Hash: tx.Hash, Type: domain.TxSent}, nil
}

type stubRPC struct {
	gasPriceErr error
}

func (s stubRPC) GasPrice(ctx context.Context, chain string) (*big.Int, error) {
	if s.gasPriceErr != nil {
		return nil, s.gasPriceErr
	}
	return big.NewInt(1000000000), nil
}

func (stubRPC) TransactionCount(ctx context.Context, chain, address string) (uint64, error) {
	return 7, nil
}

func (stubRPC) EstimateGas(ctx context.Context, chain string, msg evmrpc.CallMsg) (uint64, error) {
	return 21000, nil
}

func (stubRPC) TransactionByHash(ctx context.Context, chain, hash string) (*evmrpc.Transaction, error) {
	if hash == "0xmissing" {
		return nil, nil
	}
	return &evmrpc.Transaction{Hash: hash}, nil
}

func (stubRPC) SendRawTransaction(ctx context.Context, chain, signedTx string) (string, error) {
	return "0xsent", nil
}

func (stubRPC) Code(ctx context.Context, chain, address string) (string, error) {
	return "0x6080", nil
}

type stubTokenList struct{}

func (stubTokenList) Tokens() []domain.TokenMetadata {
	return []domain.TokenMetadata{{ID: "usd-coin", Symbol: "USDC", Chain: "ethereum"}}
}

type stubPrices struct{}

func (stubPrices) Get(ctx context.Context, id, date string) (float64, error) {
	return 1.01, nil
}

func testServer(t *testing.T, opts ...func(*Server)) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	srv := NewServer(
		stubAuth{}, stubBalances{}, stubHistory{}, stubClassifier{}, stubRPC{},
		stubTokenList{}, stubPrices{},
		map[string]*domain.Chain{"ethereum": {ID: "ethereum", ValueUnit: "wei"}},
		logger, nil,
	)
	srv.retry = resilience.RetryOptions{Limit: 1}
	for _, opt := range opts {
		opt(srv)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, token string, payload interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"securityToken": token,
		"payload":       payload,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestIssueToken(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/auth/token", "", map[string]string{
		"publicKey": "04abcd",
		"isoDate":   "2026-08-29T12:00:00Z",
		"signature": "0x00",
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		SecurityToken string `json:"securityToken"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.SecurityToken != goodToken {
		t.Errorf("token = %q", payload.SecurityToken)
	}
}

func TestIssueToken_BadSignature(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/v1/auth/token", "", map[string]string{
		"publicKey": "bad",
		"isoDate":   "2026-08-29T12:00:00Z",
		"signature": "0x00",
	})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBalances(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/balances", goodToken, map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var addr string
	if err := json.Unmarshal(body["address"], &addr); err != nil || addr == "" {
		t.Errorf("missing address in envelope: %v", err)
	}
}

func TestBalances_MissingToken(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/v1/balances", "", map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBalances_GarbageToken(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/v1/balances", "garbage", map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBalances_UnknownChain(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/v1/balances", goodToken, map[string]string{"chain": "dogecoin"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTransactions(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/transactions", goodToken, map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload struct {
		Transactions []domain.ClassifiedTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Transactions) != 1 || payload.Transactions[0].Type != domain.TxSent {
		t.Errorf("transactions = %+v", payload.Transactions)
	}
}

func TestGasPrice(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/gas-price", goodToken, map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		GasPrice  string `json:"gasPrice"`
		ValueUnit string `json:"valueUnit"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.GasPrice != "1000000000" || payload.ValueUnit != "wei" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestGasPrice_UpstreamExhausted(t *testing.T) {
	ts := testServer(t, func(s *Server) {
		s.rpc = stubRPC{gasPriceErr: fmt.Errorf("all endpoints failed: %w", resilience.ErrNoEndpoint)}
	})

	resp, _ := post(t, ts, "/v1/gas-price", goodToken, map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestNonce(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/nonce", goodToken, map[string]string{"chain": "ethereum"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Nonce != 7 {
		t.Errorf("nonce = %d, want 7", payload.Nonce)
	}
}

func TestTransaction_NotFound(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/v1/transaction", goodToken, map[string]string{
		"chain": "ethereum", "hash": "0xmissing",
	})

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSend(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/send", goodToken, map[string]string{
		"chain": "ethereum", "signedTransaction": "0xdeadbeef",
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		TransactionHash string `json:"transactionHash"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TransactionHash != "0xsent" {
		t.Errorf("hash = %q", payload.TransactionHash)
	}
}

func TestHistoryPrice(t *testing.T) {
	ts := testServer(t)

	resp, body := post(t, ts, "/v1/history-price", goodToken, map[string]string{
		"id": "usd-coin", "date": "2026-08-01",
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		PriceUSD float64 `json:"priceUsd"`
	}
	if err := json.Unmarshal(body["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.PriceUSD != 1.01 {
		t.Errorf("price = %v", payload.PriceUSD)
	}
}

func TestHealth(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
