package feedparse

import (
	"regexp"
	"strings"

	"gemwatch/internal/domain"
)

// anchorVariant is one known layout of the trending feed. The anchor
// pattern both recognizes the layout and yields the token name and
// identifier; the first matching variant in order wins.
type anchorVariant struct {
	name    string
	pattern *regexp.Regexp
	// extract maps the anchor's submatches to (tokenName, tokenID).
	extract func(m []string) (string, string)
}

// capVariant is one known way the feed renders capitalization. oldCap is 0
// when the layout carries only an absolute figure.
type capVariant struct {
	name    string
	pattern *regexp.Regexp
	extract func(m []string) (oldCap, newCap int64)
}

// TrendingParser extracts updates from the trending feed. The feed's
// producers change formatting without notice, so the parser is an ordered
// fallback chain over every layout observed so far; adding a variant means
// appending to the chain, not rewriting it.
type TrendingParser struct {
	anchors []anchorVariant
	caps    []capVariant

	upBoldPattern  *regexp.Regexp
	upPlainPattern *regexp.Regexp
}

// NewTrendingParser creates a parser with all observed layout variants.
func NewTrendingParser() *TrendingParser {
	return &TrendingParser{
		anchors: []anchorVariant{
			{
				name: "gecko_bold",
				pattern: regexp.MustCompile(
					`📈\s*\[\*\*(.+?)\*\*\]\(https://www\.geckoterminal\.com/solana/pools/(\w+)\)`),
				extract: func(m []string) (string, string) { return m[1], m[2] },
			},
			{
				name: "gecko_plain",
				pattern: regexp.MustCompile(
					`📈\s*(.+?)\s*\(https://www\.geckoterminal\.com/solana/pools/(\w+)\)`),
				extract: func(m []string) (string, string) { return m[1], m[2] },
			},
			{
				name: "soul_sniper",
				pattern: regexp.MustCompile(
					`🔥\s*(.+?)\s*\(https://t\.me/soul_sniper_bot\?start=15_(\w+)\)`),
				extract: func(m []string) (string, string) { return m[1], m[2] },
			},
		},
		caps: []capVariant{
			{
				name:    "absolute_mc",
				pattern: regexp.MustCompile(`💰 MC: \$([\d,]+)`),
				extract: func(m []string) (int64, int64) {
					return 0, parseGroupedInt(m[1])
				},
			},
			{
				name: "pair_bold",
				pattern: regexp.MustCompile(
					`\*\*\$([\d,]+\.?[\d]*)K\*\*\s*—>\s*\*\*\$([\d,]+\.?[\d]*)K\*\*`),
				extract: func(m []string) (int64, int64) {
					return parseThousands(m[1]), parseThousands(m[2])
				},
			},
			{
				name: "pair_plain",
				pattern: regexp.MustCompile(
					`\$([\d,]+\.?[\d]*)K\s*—>\s*\$([\d,]+\.?[\d]*)K`),
				extract: func(m []string) (int64, int64) {
					return parseThousands(m[1]), parseThousands(m[2])
				},
			},
		},
		// "is up **3X**" / "is up 140%" phrases. The X multiplier is
		// case-sensitive.
		upBoldPattern:  regexp.MustCompile(`is up\s*\*\*(\d+(?:\.\d+)?)(X?)\*\*`),
		upPlainPattern: regexp.MustCompile(`is up\s*(\d+(?:\.\d+)?)(X?)`),
	}
}

var _ Parser = (*TrendingParser)(nil)

// Parse extracts a TokenUpdate using the first anchor variant that matches.
// Liquidity, bonding, and age are not present in any trending layout.
func (p *TrendingParser) Parse(text string) (*domain.TokenUpdate, error) {
	var tokenName, tokenID string
	matched := false
	for _, v := range p.anchors {
		m := v.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		tokenName, tokenID = v.extract(m)
		matched = true
		break
	}
	if !matched || tokenID == "" {
		return nil, ErrNoMatch
	}

	u := &domain.TokenUpdate{
		TokenID:   tokenID,
		TokenName: strings.TrimSpace(tokenName),
		Age:       domain.UnknownAge,
		Feed:      domain.FeedTrending,
	}
	if u.TokenName == "" {
		u.TokenName = domain.UnknownName
	}
	u.IDKind = ClassifyIdentifier(u.TokenID)

	for _, v := range p.caps {
		m := v.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		u.OldCap, u.MarketCap = v.extract(m)
		break
	}

	u.PercentChange = p.percentChange(text, u.OldCap, u.MarketCap)
	return u, nil
}

// percentChange derives the percentage delta: from the old -> new pair when
// both are present, otherwise from an explicit "is up N%/NX" phrase,
// otherwise 0.
func (p *TrendingParser) percentChange(text string, oldCap, newCap int64) int64 {
	if oldCap > 0 && newCap > 0 {
		return (newCap - oldCap) * 100 / oldCap
	}

	m := p.upBoldPattern.FindStringSubmatch(text)
	if m == nil {
		m = p.upPlainPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}

	value := parseFloatField(m[1])
	if m[2] == "X" {
		// A multiplier phrase: "3X" means +300%.
		return int64(value * 100)
	}
	return int64(value)
}
