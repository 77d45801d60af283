package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gemwatch/internal/domain"
	"gemwatch/internal/feedparse"
)

// DefaultProfileURL is the public token-profiles endpoint.
const DefaultProfileURL = "https://api.dexscreener.com/token-profiles/latest/v1"

// profileTimeLayout matches the endpoint's createdAt timestamps.
const profileTimeLayout = "2006-01-02T15:04:05.000Z"

// tokenProfile is one entry of the profiles response.
type tokenProfile struct {
	TokenID     string  `json:"tokenId"`
	MarketCap   float64 `json:"marketCapUsd"`
	BondingRate float64 `json:"bondingRate"`
	CreatedAt   string  `json:"createdAt"`
	Liquidity   struct {
		SolAmount  float64 `json:"solAmount"`
		SolPercent float64 `json:"solPercent"`
	} `json:"liquidity"`
}

// ProfileSource fetches structured token profiles over HTTP. It implements
// UpdateSource. Entries without a token identifier are skipped.
type ProfileSource struct {
	url    string
	feed   domain.Feed
	client *http.Client
	now    func() time.Time
}

var _ UpdateSource = (*ProfileSource)(nil)

// NewProfileSource creates a profile source for url, tagging updates with
// feed. An empty url selects DefaultProfileURL.
func NewProfileSource(url string, feed domain.Feed) *ProfileSource {
	if url == "" {
		url = DefaultProfileURL
	}
	return &ProfileSource{
		url:    url,
		feed:   feed,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
	}
}

// Fetch downloads the latest profiles and converts them to token updates.
func (s *ProfileSource) Fetch(ctx context.Context) ([]*domain.TokenUpdate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build profiles request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profiles: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profiles response: %w", err)
	}

	var profiles []tokenProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles response: %w", err)
	}

	updates := make([]*domain.TokenUpdate, 0, len(profiles))
	for _, p := range profiles {
		if p.TokenID == "" {
			continue
		}
		updates = append(updates, &domain.TokenUpdate{
			TokenID:    p.TokenID,
			TokenName:  domain.UnknownName,
			MarketCap:  int64(p.MarketCap),
			TotalLiq:   p.Liquidity.SolAmount,
			LiqPercent: p.Liquidity.SolPercent,
			Bonding:    p.BondingRate,
			Age:        s.age(p.CreatedAt),
			Feed:       s.feed,
			IDKind:     feedparse.ClassifyIdentifier(p.TokenID),
		})
	}
	return updates, nil
}

// age renders a createdAt timestamp as whole minutes of elapsed time.
func (s *ProfileSource) age(createdAt string) string {
	if createdAt == "" {
		return domain.UnknownAge
	}
	created, err := time.Parse(profileTimeLayout, createdAt)
	if err != nil {
		return domain.UnknownAge
	}
	minutes := int(s.now().UTC().Sub(created).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d minutes ago", minutes)
}
