package cache

import (
	"context"
	"fmt"
	"testing"

	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/resilience"
)

type stubCaller struct {
	calls   int
	returns map[string]string // token address -> hex return data
}

func (s *stubCaller) Call(ctx context.Context, chain string, msg evmrpc.CallMsg) (string, error) {
	s.calls++
	data, ok := s.returns[msg.To]
	if !ok {
		return "", fmt.Errorf("unexpected call to %s", msg.To)
	}
	return data, nil
}

func TestDecimalsCache_FetchOnce(t *testing.T) {
	caller := &stubCaller{returns: map[string]string{
		"0xdac17f958d2ee523a2206206994597c13d831ec7": "0x0000000000000000000000000000000000000000000000000000000000000006",
	}}

	dc, err := NewDecimalsCache(caller, testChains(), resilience.RetryOptions{Limit: 1}, nil)
	if err != nil {
		t.Fatalf("NewDecimalsCache: %v", err)
	}
	ctx := context.Background()

	dec, err := dc.Decimals(ctx, "ethereum", "0xdac17f958d2ee523a2206206994597c13d831ec7")
	if err != nil {
		t.Fatalf("Decimals: %v", err)
	}
	if dec != 6 {
		t.Errorf("expected 6 decimals, got %d", dec)
	}

	// Second lookup (different casing) must be served from cache.
	dec, err = dc.Decimals(ctx, "ethereum", "0xDAC17F958D2EE523A2206206994597C13D831EC7")
	if err != nil {
		t.Fatalf("Decimals: %v", err)
	}
	if dec != 6 {
		t.Errorf("expected 6 decimals, got %d", dec)
	}

	if caller.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", caller.calls)
	}
}

func TestDecimalsCache_NativeSentinel(t *testing.T) {
	caller := &stubCaller{returns: map[string]string{}}
	dc, err := NewDecimalsCache(caller, testChains(), resilience.RetryOptions{Limit: 1}, nil)
	if err != nil {
		t.Fatalf("NewDecimalsCache: %v", err)
	}

	dec, err := dc.Decimals(context.Background(), "ethereum", "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	if err != nil {
		t.Fatalf("Decimals: %v", err)
	}
	if dec != 18 {
		t.Errorf("expected native decimals 18, got %d", dec)
	}

	if caller.calls != 0 {
		t.Errorf("sentinel must not hit upstream, got %d calls", caller.calls)
	}
}

func TestDecodeDecimals(t *testing.T) {
	cases := []struct {
		data    string
		want    uint8
		wantErr bool
	}{
		{"0x0000000000000000000000000000000000000000000000000000000000000012", 18, false},
		{"0x06", 6, false},
		{"0x", 0, true},
		{"0xzz", 0, true},
		{"0x0100", 0, true}, // 256 overflows uint8
	}

	for _, tc := range cases {
		got, err := decodeDecimals(tc.data)
		if tc.wantErr {
			if err == nil {
				t.Errorf("decodeDecimals(%s): expected error", tc.data)
			}
			continue
		}
		if err != nil {
			t.Errorf("decodeDecimals(%s): %v", tc.data, err)
			continue
		}
		if got != tc.want {
			t.Errorf("decodeDecimals(%s) = %d, want %d", tc.data, got, tc.want)
		}
	}
}
