package domain

// TokenMetadata describes one token from the provider's market list. ID is
// the provider's own token identifier, used for historical price lookups.
type TokenMetadata struct {
	ID       string   `json:"id"`
	Chain    string   `json:"chain"`
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals uint8    `json:"decimals"`
	LogoURI  string   `json:"logoUri,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// TokenBalance is one row of an account's balance listing.
type TokenBalance struct {
	TokenAddress   string  `json:"tokenAddress"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Decimals       uint8   `json:"decimals"`
	LogoURI        string  `json:"logoUri,omitempty"`
	Balance        string  `json:"balance"`
	PriceUSD       float64 `json:"priceUsd"`
	PriceChange24h float64 `json:"priceChange24h"`
}
