// Package ingest drives the polling cycle: fetch raw posts from every
// source, parse them, decide, commit, mirror, and fan out notifications.
// The loop never exits on its own; any error shortens the next delay and
// the cycle repeats.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
	"gemwatch/internal/feed"
	"gemwatch/internal/feedparse"
	"gemwatch/internal/notify"
	"gemwatch/internal/observability"
	"gemwatch/internal/storage"
)

// Default cycle pacing.
const (
	DefaultInterval   = 120 * time.Second
	DefaultErrorDelay = 60 * time.Second
)

// Config wires a Runner. TokenStore, Parsers, Policy, and Fanout are
// required; everything else is optional.
type Config struct {
	PostSources   []feed.PostSource
	UpdateSources []feed.UpdateSource
	Parsers       *feedparse.Registry
	Policy        engine.Policy
	Tokens        storage.TokenStore
	CapSeries     storage.CapSeriesStore
	Fanout        *notify.Fanout

	// MatchFeed is the feed searched for name matches when a token first
	// appears on a different feed. Empty disables match lookups.
	MatchFeed domain.Feed

	Interval   time.Duration
	ErrorDelay time.Duration
	Logger     *log.Logger
}

// Runner executes ingestion cycles at a fixed cadence.
type Runner struct {
	cfg Config
	now func() time.Time
}

// NewRunner creates a runner from cfg, filling in defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ErrorDelay <= 0 {
		cfg.ErrorDelay = DefaultErrorDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Runner{cfg: cfg, now: time.Now}
}

// Run cycles until ctx is cancelled. A cycle-level error is logged and
// shortens the delay before the next cycle; it never stops the loop.
func (r *Runner) Run(ctx context.Context) error {
	for {
		start := r.now()
		err := r.Cycle(ctx)
		observability.RecordCycle(r.now().Sub(start).Seconds(), err)

		delay := r.cfg.Interval
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.cfg.Logger.Printf("cycle failed: %v", err)
			delay = r.cfg.ErrorDelay
		} else {
			observability.MarkCycleSuccess(r.now().Unix())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Cycle runs one fetch-parse-decide-commit-notify pass over every source.
// Individual post failures are contained; source-level fetch failures are
// collected into the returned error.
func (r *Runner) Cycle(ctx context.Context) error {
	var errs []error

	for _, src := range r.cfg.PostSources {
		posts, err := src.Fetch(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch posts: %w", err))
			continue
		}
		for _, post := range posts {
			r.processPost(ctx, post)
		}
	}

	for _, src := range r.cfg.UpdateSources {
		updates, err := src.Fetch(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch updates: %w", err))
			continue
		}
		for _, u := range updates {
			if err := r.ProcessUpdate(ctx, u); err != nil {
				r.cfg.Logger.Printf("process %s: %v", u.TokenID, err)
			}
		}
	}

	return errors.Join(errs...)
}

// processPost parses one raw post and runs its update through the decision
// path. A post that fails to parse is counted and dropped; a storage error
// is logged and the cycle moves on.
func (r *Runner) processPost(ctx context.Context, post feed.Post) {
	observability.RecordPostProcessed(string(post.Feed))

	parser, ok := r.cfg.Parsers.ForFeed(post.Feed)
	if !ok {
		observability.RecordParseFailure(string(post.Feed))
		return
	}

	u, err := parser.Parse(post.Text)
	if err != nil {
		observability.RecordParseFailure(string(post.Feed))
		if !errors.Is(err, feedparse.ErrNoMatch) {
			r.cfg.Logger.Printf("parse %s post: %v", post.Feed, err)
		}
		return
	}

	if err := r.ProcessUpdate(ctx, u); err != nil {
		r.cfg.Logger.Printf("process %s: %v", u.TokenID, err)
	}
}

// ProcessUpdate runs one structured update through decide-commit-mirror-
// notify. The mutation is committed before any delivery is attempted, so a
// delivery failure can never roll back state.
func (r *Runner) ProcessUpdate(ctx context.Context, u *domain.TokenUpdate) error {
	if u == nil || u.TokenID == "" {
		return nil
	}

	prior, err := r.cfg.Tokens.GetRecord(ctx, u.TokenID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get record: %w", err)
	}

	priorUpdates := 0
	if prior != nil {
		priorUpdates, err = r.cfg.Tokens.CountUpdates(ctx, u.TokenID)
		if err != nil {
			return fmt.Errorf("count updates: %w", err)
		}
	}

	nowMs := r.now().UnixMilli()
	mutation, notification := r.cfg.Policy.Decide(u, prior, priorUpdates, nowMs)
	if mutation.Op == domain.OpNone {
		return nil
	}

	if err := r.cfg.Tokens.ApplyMutation(ctx, &mutation); err != nil {
		return fmt.Errorf("apply mutation: %w", err)
	}
	if mutation.Op == domain.OpInsert {
		observability.RecordTokenInserted()
	}
	if mutation.Event != nil {
		observability.RecordEvent(string(mutation.Event.ChangeType))
	}

	r.mirror(ctx, &mutation, notification)

	if notification != nil {
		r.deliver(ctx, notification)
		if notification.Kind == engine.KindNewToken {
			r.checkMatch(ctx, u)
		}
	}
	return nil
}

// mirror appends the committed event to the cap series. Failures are logged
// only; the mirror never gates the decision path.
func (r *Runner) mirror(ctx context.Context, m *domain.Mutation, n *engine.Notification) {
	if r.cfg.CapSeries == nil || m.Event == nil {
		return
	}

	point := &domain.CapPoint{
		TokenID:     m.Event.TokenID,
		TimestampMs: m.Event.CreatedAt,
		MarketCap:   m.Event.NewCap,
	}
	if n != nil && n.HasPercent {
		point.PercentChange = n.PercentChange
	} else if pct, ok := engine.PercentDelta(m.Event.OldCap, m.Event.NewCap); ok {
		point.PercentChange = pct
	}

	if err := r.cfg.CapSeries.Insert(ctx, point); err != nil {
		r.cfg.Logger.Printf("mirror cap point for %s: %v", point.TokenID, err)
	}
}

func (r *Runner) deliver(ctx context.Context, n *engine.Notification) {
	res, err := r.cfg.Fanout.Deliver(ctx, n)
	if err != nil {
		r.cfg.Logger.Printf("fan out %s for %s: %v", n.Kind, n.TokenID, err)
	}
	if res.Delivered > 0 {
		observability.RecordNotificationSent(string(n.Kind))
	}
	for i := 0; i < res.Removed; i++ {
		observability.RecordSubscriberRemoved()
	}
}

// checkMatch looks the new token's name up in the match feed's state and
// tells the admin when another feed is already tracking it.
func (r *Runner) checkMatch(ctx context.Context, u *domain.TokenUpdate) {
	if r.cfg.MatchFeed == "" || u.Feed == r.cfg.MatchFeed {
		return
	}
	if u.TokenName == "" || u.TokenName == domain.UnknownName {
		return
	}

	match, err := r.cfg.Tokens.FindByName(ctx, u.TokenName, r.cfg.MatchFeed)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.cfg.Logger.Printf("match lookup for %q: %v", u.TokenName, err)
		}
		return
	}
	if match.TokenID == u.TokenID {
		return
	}

	if err := r.cfg.Fanout.SendAdmin(ctx, notify.RenderMatch(u, match)); err != nil {
		r.cfg.Logger.Printf("send match notification for %s: %v", u.TokenID, err)
	}
}
