package feedparse

import (
	"errors"
	"testing"

	"gemwatch/internal/domain"
)

func TestTrendingParser_Parse_BoldGeckoPair(t *testing.T) {
	parser := NewTrendingParser()

	text := `📈 [**PEPE**](https://www.geckoterminal.com/solana/pools/AbCdEf123)

**$50.0K** —> **$100.0K** 💵`

	u, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if u.TokenID != "AbCdEf123" {
		t.Errorf("TokenID mismatch: got %s", u.TokenID)
	}
	if u.TokenName != "PEPE" {
		t.Errorf("TokenName mismatch: got %s", u.TokenName)
	}
	if u.OldCap != 50000 || u.MarketCap != 100000 {
		t.Errorf("caps mismatch: got %d -> %d", u.OldCap, u.MarketCap)
	}
	if u.PercentChange != 100 {
		t.Errorf("PercentChange mismatch: got %d, want 100", u.PercentChange)
	}
	if u.Feed != domain.FeedTrending {
		t.Errorf("Feed mismatch: got %s", u.Feed)
	}
}

func TestTrendingParser_Parse_PlainGeckoPair(t *testing.T) {
	parser := NewTrendingParser()

	text := `📈 WIF (https://www.geckoterminal.com/solana/pools/Plain123) trending

$10.0K —> $15.0K`

	u, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if u.TokenID != "Plain123" {
		t.Errorf("TokenID mismatch: got %s", u.TokenID)
	}
	if u.TokenName != "WIF" {
		t.Errorf("TokenName mismatch: got %s", u.TokenName)
	}
	if u.OldCap != 10000 || u.MarketCap != 15000 {
		t.Errorf("caps mismatch: got %d -> %d", u.OldCap, u.MarketCap)
	}
	if u.PercentChange != 50 {
		t.Errorf("PercentChange mismatch: got %d, want 50", u.PercentChange)
	}
}

func TestTrendingParser_Parse_SoulSniperAbsoluteMC(t *testing.T) {
	parser := NewTrendingParser()

	text := `🔥 DOGE2 (https://t.me/soul_sniper_bot?start=15_XyZ987)

💰 MC: $250,000
Token is up **3X**`

	u, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if u.TokenID != "XyZ987" {
		t.Errorf("TokenID mismatch: got %s", u.TokenID)
	}
	if u.TokenName != "DOGE2" {
		t.Errorf("TokenName mismatch: got %s", u.TokenName)
	}
	if u.OldCap != 0 {
		t.Errorf("OldCap mismatch: got %d, want 0", u.OldCap)
	}
	if u.MarketCap != 250000 {
		t.Errorf("MarketCap mismatch: got %d, want 250000", u.MarketCap)
	}
	// A 3X multiplier phrase means +300%.
	if u.PercentChange != 300 {
		t.Errorf("PercentChange mismatch: got %d, want 300", u.PercentChange)
	}
}

func TestTrendingParser_Parse_PlainUpPercent(t *testing.T) {
	parser := NewTrendingParser()

	text := `📈 BONK (https://www.geckoterminal.com/solana/pools/Bonk456) is up 140

💰 MC: $90,000`

	u, err := parser.Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if u.PercentChange != 140 {
		t.Errorf("PercentChange mismatch: got %d, want 140", u.PercentChange)
	}
}

func TestTrendingParser_Parse_NoAnchor(t *testing.T) {
	parser := NewTrendingParser()

	_, err := parser.Parse("random text with no recognizable layout")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}
