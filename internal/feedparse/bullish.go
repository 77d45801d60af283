package feedparse

import (
	"regexp"
	"strings"

	"gemwatch/internal/domain"
)

// BullishParser extracts updates from the bullish calls layout:
//
//	Token: Moonshot
//	Now: 51.1K
//	Contract:
//	7xKX...
//
// Only the name, the abbreviated current cap, and the contract address are
// present; liquidity, bonding, and age are unavailable in this feed.
type BullishParser struct {
	namePattern     *regexp.Regexp
	nowCapPattern   *regexp.Regexp
	contractPattern *regexp.Regexp
}

// NewBullishParser creates a parser for the bullish calls layout.
func NewBullishParser() *BullishParser {
	return &BullishParser{
		namePattern: regexp.MustCompile(`Token:\s*(.+)`),
		// The K suffix is case-sensitive: this feed always abbreviates in
		// thousands ("51.1K", "1,140.4K").
		nowCapPattern:   regexp.MustCompile(`Now:\s*([\d,]+\.?[\d]*)K`),
		contractPattern: regexp.MustCompile(`Contract:\n*(\w+)`),
	}
}

var _ Parser = (*BullishParser)(nil)

// Parse extracts a TokenUpdate from one post.
func (p *BullishParser) Parse(text string) (*domain.TokenUpdate, error) {
	contractMatch := p.contractPattern.FindStringSubmatch(text)
	if contractMatch == nil {
		return nil, ErrNoMatch
	}

	u := &domain.TokenUpdate{
		TokenID:   strings.TrimSpace(contractMatch[1]),
		TokenName: domain.UnknownName,
		Age:       domain.UnknownAge,
		Feed:      domain.FeedBullishCalls,
	}
	u.IDKind = ClassifyIdentifier(u.TokenID)

	if m := p.namePattern.FindStringSubmatch(text); m != nil {
		u.TokenName = strings.TrimSpace(m[1])
	}
	if m := p.nowCapPattern.FindStringSubmatch(text); m != nil {
		u.MarketCap = parseThousands(m[1])
	}

	return u, nil
}
