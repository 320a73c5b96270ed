package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// LogEvent is one log emitted during transaction execution: indexed topics
// plus the unindexed data payload, both 0x-prefixed hex.
type LogEvent struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// RawTransaction is a ledger transaction as returned by the chain-data
// provider. Immutable once fetched.
type RawTransaction struct {
	Hash       string     `json:"hash"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Value      string     `json:"value"` // integer string in the chain's value unit
	GasUsed    uint64     `json:"gasUsed"`
	GasPrice   string     `json:"gasPrice"`
	Successful bool       `json:"successful"`
	BlockTime  int64      `json:"blockTime"` // unix seconds
	Logs       []LogEvent `json:"logs"`
}

// TransactionType is the semantic classification of a transaction relative
// to the wallet owner.
type TransactionType string

const (
	TxReceived    TransactionType = "received"
	TxSent        TransactionType = "sent"
	TxExchanged   TransactionType = "exchanged"
	TxTransferred TransactionType = "transferred"
	TxCalled      TransactionType = "called"
)

// ExchangeDetail holds the decoded fields of a router Swap event.
type ExchangeDetail struct {
	SrcAddress   string          `json:"srcAddress"`
	SrcToken     string          `json:"srcToken"`
	DestToken    string          `json:"destToken"`
	DestAddress  string          `json:"destAddress"`
	SrcAmount    string          `json:"srcAmount"` // raw integer string
	DestAmount   string          `json:"destAmount"`
	SrcDecimals  uint8           `json:"srcDecimals"`
	DestDecimals uint8           `json:"destDecimals"`
	SrcValue     decimal.Decimal `json:"srcValue"` // SrcAmount scaled by SrcDecimals
	DestValue    decimal.Decimal `json:"destValue"`
}

// TransferDetail holds the decoded fields of a single ERC20 Transfer event.
type TransferDetail struct {
	Token    string          `json:"token"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   string          `json:"amount"` // raw integer string
	Decimals uint8           `json:"decimals"`
	Value    decimal.Decimal `json:"value"` // Amount scaled by Decimals
}

// ClassifiedTransaction is the normalized history record a wallet UI renders.
// Exchange and Transfer are mutually exclusive.
type ClassifiedTransaction struct {
	Chain      string          `json:"chain"`
	Hash       string          `json:"transactionHash"`
	Type       TransactionType `json:"type"`
	Date       time.Time       `json:"date"`
	Successful bool            `json:"successful"`
	From       string          `json:"fromAddress"`
	To         string          `json:"toAddress"`
	Value      string          `json:"value"`
	UsedGas    uint64          `json:"usedGas"`
	Exchange   *ExchangeDetail `json:"exchange,omitempty"`
	Transfer   *TransferDetail `json:"transfer,omitempty"`
}

// ScaleAmount converts a raw integer token amount to its decimal value.
func ScaleAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(raw, 0).Shift(-int32(decimals))
}
