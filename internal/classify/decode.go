package classify

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"wallet-backend/internal/domain"
)

// ErrMalformedLog is returned when a log payload is shorter than its
// declared layout or not valid hex.
var ErrMalformedLog = errors.New("malformed log payload")

// Log payloads are sequences of 32-byte words, hex encoded.
const wordHexLen = 64

// Swap log data layout, in words.
const (
	swapWordSender     = 0
	swapWordSrcToken   = 1
	swapWordDestToken  = 2
	swapWordDestAddr   = 3
	swapWordSrcAmount  = 4
	swapWordDestAmount = 5
	swapWordCount      = 6
)

// swapEvent is the decoded payload of a router Swap log.
type swapEvent struct {
	Sender     string
	SrcToken   string
	DestToken  string
	DestAddr   string
	SrcAmount  *big.Int
	DestAmount *big.Int
}

// decodeSwapLog decodes the fixed positional layout of a Swap log payload.
func decodeSwapLog(data string) (*swapEvent, error) {
	words, err := splitWords(data, swapWordCount)
	if err != nil {
		return nil, err
	}

	srcAmount, err := amountWord(words[swapWordSrcAmount])
	if err != nil {
		return nil, err
	}
	destAmount, err := amountWord(words[swapWordDestAmount])
	if err != nil {
		return nil, err
	}

	return &swapEvent{
		Sender:     addressWord(words[swapWordSender]),
		SrcToken:   addressWord(words[swapWordSrcToken]),
		DestToken:  addressWord(words[swapWordDestToken]),
		DestAddr:   addressWord(words[swapWordDestAddr]),
		SrcAmount:  srcAmount,
		DestAmount: destAmount,
	}, nil
}

// decodeTransferLog decodes an ERC20 Transfer log: from and to are indexed
// topics, the amount is the single data word.
func decodeTransferLog(log domain.LogEvent) (from, to string, amount *big.Int, err error) {
	if len(log.Topics) < 3 {
		return "", "", nil, fmt.Errorf("%w: transfer log needs 3 topics, got %d", ErrMalformedLog, len(log.Topics))
	}

	words, err := splitWords(log.Data, 1)
	if err != nil {
		return "", "", nil, err
	}
	amount, err = amountWord(words[0])
	if err != nil {
		return "", "", nil, err
	}

	return addressWord(log.Topics[1]), addressWord(log.Topics[2]), amount, nil
}

// splitWords bounds-checks data against the expected word count and returns
// the words. Extra trailing words are ignored.
func splitWords(data string, count int) ([]string, error) {
	s := strings.TrimPrefix(strings.ToLower(data), "0x")
	if len(s) < count*wordHexLen {
		return nil, fmt.Errorf("%w: need %d words, have %d hex chars", ErrMalformedLog, count, len(s))
	}

	words := make([]string, count)
	for i := 0; i < count; i++ {
		words[i] = s[i*wordHexLen : (i+1)*wordHexLen]
	}
	return words, nil
}

// addressWord extracts the canonical 20-byte address from a 32-byte word.
func addressWord(word string) string {
	return domain.CanonicalAddress(word)
}

// amountWord parses a 32-byte word as an unsigned integer.
func amountWord(word string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return nil, fmt.Errorf("%w: bad amount word %q", ErrMalformedLog, word)
	}
	return v, nil
}
