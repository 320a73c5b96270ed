package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/resilience"
)

type stubPriceFetcher struct {
	marketCalls  int
	markets      []domain.TokenMetadata
	marketsErr   error
	historyCalls int
	historyPrice float64
}

func (s *stubPriceFetcher) GetMarkets(ctx context.Context) ([]domain.TokenMetadata, error) {
	s.marketCalls++
	if s.marketsErr != nil {
		return nil, s.marketsErr
	}
	return s.markets, nil
}

func (s *stubPriceFetcher) GetHistoryPrice(ctx context.Context, id, date string) (float64, error) {
	s.historyCalls++
	return s.historyPrice, nil
}

func ethPrice(v float64) *float64 { return &v }

func TestTokenListCache_RefreshAndLookup(t *testing.T) {
	fetcher := &stubPriceFetcher{markets: []domain.TokenMetadata{
		{Chain: "ethereum", Address: "", Symbol: "ETH", Name: "Ether", Decimals: 18, Price: ethPrice(2000)},
		{Chain: "ethereum", Address: "0xDAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "USDT", Name: "Tether", Decimals: 6},
	}}

	tl := NewTokenListCache(fetcher, resilience.RetryOptions{Limit: 1}, nil)
	if err := tl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	chain := testChains()["ethereum"]

	tok, ok := tl.LookupByAddress(chain, "0xdac17f958d2ee523a2206206994597c13d831ec7")
	if !ok {
		t.Fatal("expected USDT lookup to succeed")
	}
	if tok.Symbol != "USDT" {
		t.Errorf("expected USDT, got %s", tok.Symbol)
	}

	// The native sentinel resolves through the chain's native symbol.
	tok, ok = tl.LookupByAddress(chain, domain.NativeTokenAddress)
	if !ok {
		t.Fatal("expected native sentinel lookup to succeed")
	}
	if tok.Symbol != "ETH" {
		t.Errorf("expected ETH, got %s", tok.Symbol)
	}
}

func TestTokenListCache_FailedRefreshKeepsPreviousList(t *testing.T) {
	fetcher := &stubPriceFetcher{markets: []domain.TokenMetadata{
		{Chain: "ethereum", Symbol: "ETH", Decimals: 18},
	}}

	tl := NewTokenListCache(fetcher, resilience.RetryOptions{Limit: 1}, nil)
	if err := tl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fetcher.marketsErr = errors.New("provider down")
	if err := tl.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if _, ok := tl.LookupBySymbol("ethereum", "ETH"); !ok {
		t.Error("expected previous list to survive a failed refresh")
	}
}

func TestJittered_Bounds(t *testing.T) {
	interval := 10 * time.Minute
	for i := 0; i < 100; i++ {
		d := jittered(interval)
		if d < interval || d > interval+interval/10 {
			t.Fatalf("jittered interval %v outside [%v, %v]", d, interval, interval+interval/10)
		}
	}
}

func TestHistoryPriceCache_CachedPerIDAndDate(t *testing.T) {
	fetcher := &stubPriceFetcher{historyPrice: 1234.5}
	hc := NewHistoryPriceCache(fetcher, resilience.RetryOptions{Limit: 1}, nil)
	ctx := context.Background()

	p, err := hc.Get(ctx, "ethereum", "2026-08-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p != 1234.5 {
		t.Errorf("expected 1234.5, got %f", p)
	}

	if _, err := hc.Get(ctx, "ethereum", "2026-08-01"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetcher.historyCalls != 1 {
		t.Errorf("expected 1 upstream call for same id+date, got %d", fetcher.historyCalls)
	}

	if _, err := hc.Get(ctx, "ethereum", "2026-08-02"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetcher.historyCalls != 2 {
		t.Errorf("expected distinct date to fetch, got %d calls", fetcher.historyCalls)
	}
}
