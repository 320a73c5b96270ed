package evmrpc

// CallMsg describes a contract call or transfer for eth_estimateGas.
type CallMsg struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

// Transaction is the node's view of a transaction (eth_getTransactionByHash).
// All quantities are 0x-prefixed hex.
type Transaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	Nonce       string `json:"nonce"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber,omitempty"` // empty while pending
}
