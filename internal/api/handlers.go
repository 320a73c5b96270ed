package api

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wallet-backend/internal/auth"
	"wallet-backend/internal/domain"
	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/resilience"
)

type issueTokenPayload struct {
	PublicKey string `json:"publicKey"`
	ISODate   string `json:"isoDate"`
	Signature string `json:"signature"` // hex r||s||v
}

// IssueToken verifies a signed timestamp and returns a session token.
// POST /v1/auth/token
func (s *Server) IssueToken(c *gin.Context) {
	var req envelope[issueTokenPayload]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidSignature.Error()})
		return
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Payload.Signature, "0x"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidSignature.Error()})
		return
	}

	token, err := s.auth.IssueToken(c.Request.Context(), req.Payload.PublicKey, req.Payload.ISODate, sig)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payload": gin.H{"securityToken": token}})
}

type chainPayload struct {
	Chain string `json:"chain"`
}

// chainOf resolves the chain config or fails with UnknownChain.
func (s *Server) chainOf(id string) (*domain.Chain, error) {
	chain, ok := s.chains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", resilience.ErrUnknownChain, id)
	}
	return chain, nil
}

// Balances returns the caller's token balances on a chain.
// POST /v1/balances
func (s *Server) Balances(c *gin.Context) {
	claims, payload, ok := authenticated[chainPayload](c, s.auth)
	if !ok {
		return
	}

	balances, err := s.balances.Get(c.Request.Context(), payload.Chain, claims.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"balances": balances})
}

// Transactions returns the caller's classified transaction history.
// POST /v1/transactions
func (s *Server) Transactions(c *gin.Context) {
	claims, payload, ok := authenticated[chainPayload](c, s.auth)
	if !ok {
		return
	}

	chain, err := s.chainOf(payload.Chain)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	raw, err := resilience.Retry(ctx, s.retry, func(ctx context.Context) ([]domain.RawTransaction, error) {
		return s.history.GetTransactions(ctx, payload.Chain, claims.Address)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	classified := make([]*domain.ClassifiedTransaction, 0, len(raw))
	for i := range raw {
		record, err := s.classifier.Classify(ctx, chain, claims.Address, &raw[i])
		if err != nil {
			writeError(c, err)
			return
		}
		classified = append(classified, record)
	}

	respond(c, claims, gin.H{"transactions": classified})
}

// GasPrice returns the chain's current gas price in its value unit.
// POST /v1/gas-price
func (s *Server) GasPrice(c *gin.Context) {
	claims, payload, ok := authenticated[chainPayload](c, s.auth)
	if !ok {
		return
	}

	chain, err := s.chainOf(payload.Chain)
	if err != nil {
		writeError(c, err)
		return
	}

	price, err := s.rpc.GasPrice(c.Request.Context(), payload.Chain)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"gasPrice": price.String(), "valueUnit": chain.ValueUnit})
}

type estimateGasPayload struct {
	Chain string `json:"chain"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// EstimateGas estimates the gas a transaction would use.
// POST /v1/estimate-gas
func (s *Server) EstimateGas(c *gin.Context) {
	claims, payload, ok := authenticated[estimateGasPayload](c, s.auth)
	if !ok {
		return
	}

	if _, err := s.chainOf(payload.Chain); err != nil {
		writeError(c, err)
		return
	}

	from := payload.From
	if from == "" {
		from = claims.Address
	}

	gas, err := s.rpc.EstimateGas(c.Request.Context(), payload.Chain, evmrpc.CallMsg{
		From:  from,
		To:    payload.To,
		Value: payload.Value,
		Data:  payload.Data,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"gas": gas})
}

// Nonce returns the caller's transaction count on a chain.
// POST /v1/nonce
func (s *Server) Nonce(c *gin.Context) {
	claims, payload, ok := authenticated[chainPayload](c, s.auth)
	if !ok {
		return
	}

	if _, err := s.chainOf(payload.Chain); err != nil {
		writeError(c, err)
		return
	}

	nonce, err := s.rpc.TransactionCount(c.Request.Context(), payload.Chain, claims.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"nonce": nonce})
}

type transactionPayload struct {
	Chain string `json:"chain"`
	Hash  string `json:"hash"`
}

// Transaction returns the node's view of one transaction.
// POST /v1/transaction
func (s *Server) Transaction(c *gin.Context) {
	claims, payload, ok := authenticated[transactionPayload](c, s.auth)
	if !ok {
		return
	}

	if _, err := s.chainOf(payload.Chain); err != nil {
		writeError(c, err)
		return
	}

	tx, err := s.rpc.TransactionByHash(c.Request.Context(), payload.Chain, payload.Hash)
	if err != nil {
		writeError(c, err)
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	respond(c, claims, gin.H{"transaction": tx})
}

type sendPayload struct {
	Chain             string `json:"chain"`
	SignedTransaction string `json:"signedTransaction"`
}

// Send submits a signed transaction to the chain.
// POST /v1/send
func (s *Server) Send(c *gin.Context) {
	claims, payload, ok := authenticated[sendPayload](c, s.auth)
	if !ok {
		return
	}

	if _, err := s.chainOf(payload.Chain); err != nil {
		writeError(c, err)
		return
	}

	hash, err := s.rpc.SendRawTransaction(c.Request.Context(), payload.Chain, payload.SignedTransaction)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"transactionHash": hash})
}

type codePayload struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// Code returns the contract bytecode at an address.
// POST /v1/code
func (s *Server) Code(c *gin.Context) {
	claims, payload, ok := authenticated[codePayload](c, s.auth)
	if !ok {
		return
	}

	if _, err := s.chainOf(payload.Chain); err != nil {
		writeError(c, err)
		return
	}

	code, err := s.rpc.Code(c.Request.Context(), payload.Chain, payload.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"code": code})
}

type emptyPayload struct{}

// Tokens returns the current token market list.
// POST /v1/tokens
func (s *Server) Tokens(c *gin.Context) {
	claims, _, ok := authenticated[emptyPayload](c, s.auth)
	if !ok {
		return
	}

	respond(c, claims, gin.H{"tokens": s.tokenList.Tokens()})
}

type historyPricePayload struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD
}

// HistoryPrice returns a token's USD price at a past date.
// POST /v1/history-price
func (s *Server) HistoryPrice(c *gin.Context) {
	claims, payload, ok := authenticated[historyPricePayload](c, s.auth)
	if !ok {
		return
	}

	price, err := s.prices.Get(c.Request.Context(), payload.ID, payload.Date)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, claims, gin.H{"priceUsd": price})
}
