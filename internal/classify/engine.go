package classify

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/observability"
)

// DecimalsLookup resolves a token's decimals, typically through the
// decimals cache.
type DecimalsLookup interface {
	Decimals(ctx context.Context, chain, token string) (uint8, error)
}

// Engine classifies raw transactions for a wallet owner. Classification is
// a pure function of the transaction, its logs, the chain config and cached
// decimals: re-running it on the same input yields the same record.
type Engine struct {
	decimals DecimalsLookup
	metrics  *observability.Metrics
}

// NewEngine creates a classification engine.
func NewEngine(decimals DecimalsLookup, metrics *observability.Metrics) *Engine {
	return &Engine{decimals: decimals, metrics: metrics}
}

// Classify produces the normalized record for tx as seen by owner.
// Precedence: simple transfer, exchange, single token transfer, called.
func (e *Engine) Classify(ctx context.Context, chain *domain.Chain, owner string, tx *domain.RawTransaction) (*domain.ClassifiedTransaction, error) {
	out := &domain.ClassifiedTransaction{
		Chain:      chain.ID,
		Hash:       tx.Hash,
		Date:       time.Unix(tx.BlockTime, 0).UTC(),
		Successful: tx.Successful,
		From:       tx.From,
		To:         tx.To,
		Value:      tx.Value,
		UsedGas:    tx.GasUsed,
	}

	if txType, ok := simpleTransferType(owner, tx); ok {
		out.Type = txType
		e.metrics.ObserveClassified(string(out.Type))
		return out, nil
	}

	if chain.IsSwapRouter(tx.To) {
		exchange, err := e.findExchange(ctx, chain, tx)
		if err != nil {
			return nil, err
		}
		if exchange != nil {
			out.Type = domain.TxExchanged
			out.Exchange = exchange
			e.metrics.ObserveClassified(string(out.Type))
			return out, nil
		}
	}

	transfer, err := e.findTransfer(ctx, chain, owner, tx)
	if err != nil {
		return nil, err
	}
	if transfer != nil {
		out.Type = domain.TxTransferred
		out.Transfer = transfer
		e.metrics.ObserveClassified(string(out.Type))
		return out, nil
	}

	out.Type = domain.TxCalled
	e.metrics.ObserveClassified(string(out.Type))
	return out, nil
}

// simpleTransferType detects a plain value transfer: base gas cost, positive
// value, owner on either end.
func simpleTransferType(owner string, tx *domain.RawTransaction) (domain.TransactionType, bool) {
	if tx.GasUsed != domain.BaseTransferGas {
		return "", false
	}

	value, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok || value.Sign() <= 0 {
		return "", false
	}

	switch {
	case domain.EqualAddresses(owner, tx.To):
		return domain.TxReceived, true
	case domain.EqualAddresses(owner, tx.From):
		return domain.TxSent, true
	default:
		return "", false
	}
}

// findExchange scans for the first well-formed router Swap log. A log whose
// payload does not decode is skipped rather than half-decoded.
func (e *Engine) findExchange(ctx context.Context, chain *domain.Chain, tx *domain.RawTransaction) (*domain.ExchangeDetail, error) {
	for _, log := range tx.Logs {
		if len(log.Topics) == 0 || !equalTopic(log.Topics[0], chain.SwapEventTopic) {
			continue
		}

		event, err := decodeSwapLog(log.Data)
		if err != nil {
			continue
		}
		if !chain.IsSwapRouter(event.Sender) {
			continue
		}

		srcDecimals, err := e.decimals.Decimals(ctx, chain.ID, event.SrcToken)
		if err != nil {
			return nil, fmt.Errorf("src token decimals: %w", err)
		}
		destDecimals, err := e.decimals.Decimals(ctx, chain.ID, event.DestToken)
		if err != nil {
			return nil, fmt.Errorf("dest token decimals: %w", err)
		}

		return &domain.ExchangeDetail{
			SrcAddress:   event.Sender,
			SrcToken:     event.SrcToken,
			DestToken:    event.DestToken,
			DestAddress:  event.DestAddr,
			SrcAmount:    event.SrcAmount.String(),
			DestAmount:   event.DestAmount.String(),
			SrcDecimals:  srcDecimals,
			DestDecimals: destDecimals,
			SrcValue:     domain.ScaleAmount(event.SrcAmount, srcDecimals),
			DestValue:    domain.ScaleAmount(event.DestAmount, destDecimals),
		}, nil
	}

	return nil, nil
}

// findTransfer looks for exactly one Transfer log naming the owner. More
// than one match is deliberately not decoded: ambiguous multi-transfer
// transactions degrade to a plain contract call.
func (e *Engine) findTransfer(ctx context.Context, chain *domain.Chain, owner string, tx *domain.RawTransaction) (*domain.TransferDetail, error) {
	matchIdx := -1
	matches := 0
	for i, log := range tx.Logs {
		if len(log.Topics) < 3 || !equalTopic(log.Topics[0], TransferEventTopic) {
			continue
		}
		if !domain.EqualAddresses(log.Topics[1], owner) && !domain.EqualAddresses(log.Topics[2], owner) {
			continue
		}
		matches++
		matchIdx = i
	}

	if matches != 1 {
		return nil, nil
	}

	log := tx.Logs[matchIdx]
	from, to, amount, err := decodeTransferLog(log)
	if err != nil {
		// Never emit a partial record.
		return nil, nil
	}

	decimals, err := e.decimals.Decimals(ctx, chain.ID, log.Address)
	if err != nil {
		return nil, fmt.Errorf("token decimals: %w", err)
	}

	return &domain.TransferDetail{
		Token:    domain.CanonicalAddress(log.Address),
		From:     from,
		To:       to,
		Amount:   amount.String(),
		Decimals: decimals,
		Value:    domain.ScaleAmount(amount, decimals),
	}, nil
}
