package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gemwatch/internal/commands"
	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
	"gemwatch/internal/feed"
	"gemwatch/internal/feedparse"
	"gemwatch/internal/ingest"
	"gemwatch/internal/notify"
	"gemwatch/internal/observability"
	"gemwatch/internal/storage"
	chstore "gemwatch/internal/storage/clickhouse"
	"gemwatch/internal/storage/memory"
	"gemwatch/internal/storage/migrations"
	pgstore "gemwatch/internal/storage/postgres"
	"gemwatch/internal/telegram"
)

func main() {
	// Parse flags
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the cap-series mirror (empty to disable)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	policyName := flag.String("policy", engine.DefaultPolicyName, "Notification gating policy: second-update or threshold")
	adminChatID := flag.Int64("admin-chat-id", 0, "Telegram chat ID that receives every alert (or TELEGRAM_ADMIN_CHAT_ID)")
	channels := flag.String("channels", defaultChannels, "Comma-separated channel usernames to watch")
	wsEndpoint := flag.String("ws-endpoint", "", "WebSocket endpoint streaming trending posts (empty to disable)")
	profileURL := flag.String("profile-url", feed.DefaultProfileURL, "Token-profile API URL (empty to disable)")
	interval := flag.Duration("interval", ingest.DefaultInterval, "Delay between ingestion cycles")
	errorDelay := flag.Duration("error-delay", ingest.DefaultErrorDelay, "Delay after a failed cycle")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[gemwatch] ", log.LstdFlags|log.Lshortfile)

	// Missing bot credentials are the only fatal configuration errors.
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	admin := *adminChatID
	if admin == 0 {
		if env := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); env != "" {
			parsed, err := strconv.ParseInt(env, 10, 64)
			if err != nil {
				logger.Fatalf("parse TELEGRAM_ADMIN_CHAT_ID: %v", err)
			}
			admin = parsed
		}
	}
	if admin == 0 {
		logger.Fatal("--admin-chat-id or TELEGRAM_ADMIN_CHAT_ID is required")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, options{
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		useMemory:     *useMemory,
		policyName:    *policyName,
		botToken:      botToken,
		adminChatID:   admin,
		channels:      *channels,
		wsEndpoint:    *wsEndpoint,
		profileURL:    *profileURL,
		interval:      *interval,
		errorDelay:    *errorDelay,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// defaultChannels maps the three watched feeds to their channel usernames.
const defaultChannels = "early100xgems,BullishCallsPremium,solearlytrending"

type options struct {
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	policyName    string
	botToken      string
	adminChatID   int64
	channels      string
	wsEndpoint    string
	profileURL    string
	interval      time.Duration
	errorDelay    time.Duration
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	policy, err := engine.NewPolicy(opts.policyName)
	if err != nil {
		return err
	}
	logger.Printf("Using %s gating policy", policy.Name())

	// Require --postgres-dsn unless --use-memory is explicitly set
	if !opts.useMemory && opts.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var tokenStore storage.TokenStore = memory.NewTokenStore()
	var subscriberStore storage.SubscriberStore = memory.NewSubscriberStore()

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		tokenStore = pgstore.NewTokenStore(pool)
		subscriberStore = pgstore.NewSubscriberStore(pool)
	}

	// Cap-series mirror is optional and best-effort.
	var capSeries storage.CapSeriesStore
	if opts.clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		capSeries = chstore.NewCapSeriesStore(conn)
	}

	client := telegram.NewClient(opts.botToken)
	fanout := notify.NewFanout(client, subscriberStore, opts.adminChatID, logger)

	// Route channel posts into per-feed sources and commands to the listener.
	router := feed.NewChannelRouter()
	var postSources []feed.PostSource
	for _, username := range strings.Split(opts.channels, ",") {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		f, ok := channelFeeds[strings.ToLower(username)]
		if !ok {
			logger.Printf("No parser for channel %s, skipping", username)
			continue
		}
		postSources = append(postSources, router.Watch(username, f))
	}
	if opts.wsEndpoint != "" {
		stream := feed.NewStreamSource(opts.wsEndpoint, domain.FeedTrending, logger)
		postSources = append(postSources, stream)
		go func() {
			if err := stream.Run(ctx); err != nil && err != context.Canceled {
				logger.Printf("Stream source stopped: %v", err)
			}
		}()
	}

	var updateSources []feed.UpdateSource
	if opts.profileURL != "" {
		updateSources = append(updateSources, feed.NewProfileSource(opts.profileURL, domain.FeedProfileAPI))
	}

	listener := commands.NewListener(subscriberStore, client, logger)
	poller := telegram.NewPoller(client, logger)
	poller.OnMessage(listener.Handle)
	poller.OnChannelPost(router.HandlePost)
	go func() {
		if err := poller.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("Update poller stopped: %v", err)
		}
	}()

	runner := ingest.NewRunner(ingest.Config{
		PostSources:   postSources,
		UpdateSources: updateSources,
		Parsers:       feedparse.NewRegistry(),
		Policy:        policy,
		Tokens:        tokenStore,
		CapSeries:     capSeries,
		Fanout:        fanout,
		MatchFeed:     domain.FeedTrending,
		Interval:      opts.interval,
		ErrorDelay:    opts.errorDelay,
		Logger:        logger,
	})

	logger.Println("Starting ingestion loop...")
	return runner.Run(ctx)
}

// channelFeeds maps watched channel usernames to the feeds their parsers
// are registered under.
var channelFeeds = map[string]domain.Feed{
	"early100xgems":       domain.FeedEarlyGems,
	"bullishcallspremium": domain.FeedBullishCalls,
	"solearlytrending":    domain.FeedTrending,
}
