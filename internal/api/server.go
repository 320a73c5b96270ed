// Package api exposes the wallet backend over HTTP. Handlers are thin:
// they unwrap the request envelope, authenticate, and delegate to the
// layers below.
package api

import (
	"context"
	"math/big"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// TokenService issues and validates session tokens.
type TokenService interface {
	IssueToken(ctx context.Context, publicKey, isoTimestamp string, signature []byte) (string, error)
	ValidateToken(token string) (*domain.SessionClaims, error)
}

// BalanceReader returns the balance listing for an address.
type BalanceReader interface {
	Get(ctx context.Context, chain, address string) ([]domain.TokenBalance, error)
}

// HistoryReader returns the raw transaction history for an address.
type HistoryReader interface {
	GetTransactions(ctx context.Context, chain, address string) ([]domain.RawTransaction, error)
}

// Classifier turns a raw transaction into a typed history record.
type Classifier interface {
	Classify(ctx context.Context, chain *domain.Chain, owner string, tx *domain.RawTransaction) (*domain.ClassifiedTransaction, error)
}

// RPCClient is the node RPC surface the API exposes.
type RPCClient interface {
	GasPrice(ctx context.Context, chain string) (*big.Int, error)
	TransactionCount(ctx context.Context, chain, address string) (uint64, error)
	EstimateGas(ctx context.Context, chain string, msg evmrpc.CallMsg) (uint64, error)
	TransactionByHash(ctx context.Context, chain, hash string) (*evmrpc.Transaction, error)
	SendRawTransaction(ctx context.Context, chain, signedTx string) (string, error)
	Code(ctx context.Context, chain, address string) (string, error)
}

// TokenLister returns the current token market list.
type TokenLister interface {
	Tokens() []domain.TokenMetadata
}

// HistoryPriceReader returns a token's USD price at a past date.
type HistoryPriceReader interface {
	Get(ctx context.Context, id, date string) (float64, error)
}

// Server wires the HTTP surface together.
type Server struct {
	auth       TokenService
	balances   BalanceReader
	history    HistoryReader
	classifier Classifier
	rpc        RPCClient
	tokenList  TokenLister
	prices     HistoryPriceReader
	chains     map[string]*domain.Chain
	retry      resilience.RetryOptions
	logger     *logrus.Logger
	metrics    *observability.Metrics
}

// NewServer creates the API server.
func NewServer(
	auth TokenService,
	balances BalanceReader,
	history HistoryReader,
	classifier Classifier,
	rpc RPCClient,
	tokenList TokenLister,
	prices HistoryPriceReader,
	chains map[string]*domain.Chain,
	logger *logrus.Logger,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		auth:       auth,
		balances:   balances,
		history:    history,
		classifier: classifier,
		rpc:        rpc,
		tokenList:  tokenList,
		prices:     prices,
		chains:     chains,
		retry:      resilience.DefaultRetryOptions(logger, metrics),
		logger:     logger,
		metrics:    metrics,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(Logger(s.logger), Recovery(s.logger))

	r.GET("/health", s.Health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/token", s.IssueToken)
		v1.POST("/balances", s.Balances)
		v1.POST("/transactions", s.Transactions)
		v1.POST("/gas-price", s.GasPrice)
		v1.POST("/estimate-gas", s.EstimateGas)
		v1.POST("/nonce", s.Nonce)
		v1.POST("/transaction", s.Transaction)
		v1.POST("/send", s.Send)
		v1.POST("/code", s.Code)
		v1.POST("/tokens", s.Tokens)
		v1.POST("/history-price", s.HistoryPrice)
	}

	return r
}

// Health reports process liveness.
// GET /health
func (s *Server) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
