// Package notify renders alert text and fans it out to the admin recipient
// and every subscriber. A recipient the API reports as permanently gone is
// unsubscribed on the spot; transient delivery failures are logged and the
// fan-out moves on.
package notify

import (
	"fmt"
	"strings"

	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
)

// geckoTerminalURL is the explorer link appended to every alert.
const geckoTerminalURL = "https://www.geckoterminal.com/solana/pools/"

// Render produces the Markdown alert body for a notification.
func Render(n *engine.Notification) string {
	switch n.Kind {
	case engine.KindNewToken:
		return renderNewToken(n)
	default:
		return renderCapUpdate(n)
	}
}

func renderNewToken(n *engine.Notification) string {
	var b strings.Builder
	b.WriteString("🚨 New Token Alert!\n\n")
	fmt.Fprintf(&b, "🪙 Token: %s\n", n.TokenName)
	b.WriteString("📊 Market Cap Update:\n")
	b.WriteString("📉 Previous: $0\n")
	fmt.Fprintf(&b, "📈 Updated: $%s\n", commaFormat(n.NewCap))
	if n.HasPercent {
		fmt.Fprintf(&b, "📈 Change: +%d%%\n", n.PercentChange)
	}
	fmt.Fprintf(&b, "\n🔗 Contract: `%s`\n\n", n.TokenID)
	b.WriteString("🔍 Check on GeckoTerminal:\n")
	b.WriteString(geckoTerminalURL + n.TokenID)
	return b.String()
}

func renderCapUpdate(n *engine.Notification) string {
	var b strings.Builder
	b.WriteString("🚨 Market Cap Update Alert!\n\n")
	fmt.Fprintf(&b, "🪙 Token: %s\n", n.TokenName)
	fmt.Fprintf(&b, "📉 Previous: $%s\n", commaFormat(n.OldCap))
	fmt.Fprintf(&b, "📈 Updated: $%s\n", commaFormat(n.NewCap))
	fmt.Fprintf(&b, "📊 Change: $%s", commaFormat(n.NewCap-n.OldCap))
	if n.HasPercent {
		fmt.Fprintf(&b, " (%+d%%)", n.PercentChange)
	}
	fmt.Fprintf(&b, "\n\n🔗 Contract: `%s`\n\n", n.TokenID)
	b.WriteString("🔍 Check on GeckoTerminal:\n")
	b.WriteString(geckoTerminalURL + n.TokenID)
	return b.String()
}

// RenderMatch produces the admin alert for a cross-feed name match: a token
// just seen on one feed whose name already appears in trending state.
func RenderMatch(u *domain.TokenUpdate, match *domain.TokenRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Token Match Found in %s!\n\n", match.Feed)
	fmt.Fprintf(&b, "🪙 Token: %s\n", u.TokenName)
	fmt.Fprintf(&b, "🔗 Contract: `%s`\n\n", u.TokenID)
	b.WriteString("📊 Market Cap Update:\n")
	fmt.Fprintf(&b, "📈 New MC: $%s\n", commaFormat(u.MarketCap))
	fmt.Fprintf(&b, "💧 Liquidity: %g SOL\n", u.TotalLiq)
	fmt.Fprintf(&b, "⏱️ Age: %s\n\n", u.Age)
	b.WriteString("🚀 Potential 100x Gem!")
	return b.String()
}

// commaFormat renders n with thousands separators.
func commaFormat(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
