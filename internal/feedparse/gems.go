package feedparse

import (
	"regexp"
	"strings"

	"gemwatch/internal/domain"
)

// GemsParser extracts updates from the labeled-field gems layout:
//
//	Token name: 💬 Moonshot
//	Token ID: 7xKX...
//	Liq %: 12.5%
//	Total Liq: 44.2 SOL
//	Age: 8 minutes ago
//	Market Cap: $52,000
//	Bonding %: 81.0%
type GemsParser struct {
	namePattern    *regexp.Regexp
	idPattern      *regexp.Regexp
	liqPctPattern  *regexp.Regexp
	totalLiqPattern *regexp.Regexp
	agePattern     *regexp.Regexp
	capPattern     *regexp.Regexp
	bondingPattern *regexp.Regexp
}

// NewGemsParser creates a parser for the labeled-field gems layout.
func NewGemsParser() *GemsParser {
	return &GemsParser{
		namePattern:     regexp.MustCompile(`Token name:\s*💬\s*(.+)`),
		idPattern:       regexp.MustCompile(`Token ID:\s*(\S+)`),
		liqPctPattern:   regexp.MustCompile(`Liq %:\s*([\d.]+)%`),
		totalLiqPattern: regexp.MustCompile(`Total Liq:\s*([\d.]+) SOL`),
		agePattern:      regexp.MustCompile(`Age:\s*(.+)`),
		capPattern:      regexp.MustCompile(`Market Cap:\s*\$([\d,]+)`),
		bondingPattern:  regexp.MustCompile(`Bonding %:\s*([\d.]+)%`),
	}
}

var _ Parser = (*GemsParser)(nil)

// Parse extracts a TokenUpdate. The token identifier is the only required
// field; every other field falls back to its documented default.
func (p *GemsParser) Parse(text string) (*domain.TokenUpdate, error) {
	idMatch := p.idPattern.FindStringSubmatch(text)
	if idMatch == nil {
		return nil, ErrNoMatch
	}

	u := &domain.TokenUpdate{
		TokenID:   idMatch[1],
		TokenName: domain.UnknownName,
		Age:       domain.UnknownAge,
		Feed:      domain.FeedEarlyGems,
	}
	u.IDKind = ClassifyIdentifier(u.TokenID)

	if m := p.namePattern.FindStringSubmatch(text); m != nil {
		u.TokenName = strings.TrimSpace(m[1])
	}
	if m := p.liqPctPattern.FindStringSubmatch(text); m != nil {
		u.LiqPercent = parseFloatField(m[1])
	}
	if m := p.totalLiqPattern.FindStringSubmatch(text); m != nil {
		u.TotalLiq = parseFloatField(m[1])
	}
	if m := p.agePattern.FindStringSubmatch(text); m != nil {
		u.Age = strings.TrimSpace(m[1])
	}
	if m := p.capPattern.FindStringSubmatch(text); m != nil {
		u.MarketCap = parseGroupedInt(m[1])
	}
	if m := p.bondingPattern.FindStringSubmatch(text); m != nil {
		u.Bonding = parseFloatField(m[1])
	}

	return u, nil
}
