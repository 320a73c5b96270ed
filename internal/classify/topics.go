// Package classify turns raw ledger transactions and their log events into
// typed semantic history records.
package classify

import "strings"

// TransferEventTopic is keccak256("Transfer(address,address,uint256)"),
// the first topic of every ERC20-style Transfer log.
const TransferEventTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// equalTopic compares two log topics ignoring case and 0x prefixes.
func equalTopic(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "0x"), strings.TrimPrefix(b, "0x"))
}
