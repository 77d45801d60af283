package notify

import (
	"strings"
	"testing"

	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
)

func TestRender_NewToken(t *testing.T) {
	text := Render(&engine.Notification{
		Kind:          engine.KindNewToken,
		TokenID:       "AbCdEf123",
		TokenName:     "PEPE",
		NewCap:        100000,
		Feed:          domain.FeedTrending,
		PercentChange: 100,
		HasPercent:    true,
	})

	for _, want := range []string{
		"🚨 New Token Alert!",
		"Token: PEPE",
		"Previous: $0",
		"Updated: $100,000",
		"Change: +100%",
		"`AbCdEf123`",
		"https://www.geckoterminal.com/solana/pools/AbCdEf123",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered alert missing %q:\n%s", want, text)
		}
	}
}

func TestRender_CapUpdate(t *testing.T) {
	text := Render(&engine.Notification{
		Kind:          engine.KindCapUpdate,
		TokenID:       "tok-1",
		TokenName:     "Moonshot",
		OldCap:        52000,
		NewCap:        78000,
		Feed:          domain.FeedEarlyGems,
		PercentChange: 50,
		HasPercent:    true,
	})

	for _, want := range []string{
		"🚨 Market Cap Update Alert!",
		"Previous: $52,000",
		"Updated: $78,000",
		"Change: $26,000 (+50%)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered alert missing %q:\n%s", want, text)
		}
	}
}

func TestRender_CapUpdate_NoPercent(t *testing.T) {
	text := Render(&engine.Notification{
		Kind:      engine.KindCapUpdate,
		TokenID:   "tok-1",
		TokenName: "Moonshot",
		OldCap:    52000,
		NewCap:    78000,
	})

	if strings.Contains(text, "%") {
		t.Errorf("alert should omit percent when unavailable:\n%s", text)
	}
}

func TestRenderMatch(t *testing.T) {
	u := &domain.TokenUpdate{
		TokenID:   "tok-1",
		TokenName: "Moonshot",
		MarketCap: 52000,
		TotalLiq:  44.2,
		Age:       "8 minutes ago",
		Feed:      domain.FeedEarlyGems,
	}
	match := &domain.TokenRecord{
		TokenID: "tok-trend",
		Feed:    domain.FeedTrending,
	}

	text := RenderMatch(u, match)

	for _, want := range []string{
		"🎯 Token Match Found in solearlytrending!",
		"Token: Moonshot",
		"New MC: $52,000",
		"Liquidity: 44.2 SOL",
		"Age: 8 minutes ago",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("match alert missing %q:\n%s", want, text)
		}
	}
}

func TestCommaFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{52000, "52,000"},
		{1234567, "1,234,567"},
		{-26000, "-26,000"},
	}

	for _, tc := range cases {
		if got := commaFormat(tc.in); got != tc.want {
			t.Errorf("commaFormat(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
