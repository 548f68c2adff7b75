package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yesworId/BuyOrderBot/internal/catalog"
	"github.com/yesworId/BuyOrderBot/internal/config"
	"github.com/yesworId/BuyOrderBot/internal/engine"
	"github.com/yesworId/BuyOrderBot/internal/journal"
	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/internal/session"
)

// init configures logging based on environment settings. Debug logging can
// be enabled via the DEBUG environment variable.
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main runs one buy-order placement run: authenticate, reconcile existing
// orders against the catalog, place whatever fits under the spending ceiling.
// Exits non-zero on invalid credentials, missing configuration or an
// unrecoverable balance fetch; zero after a completed or limit-exhausted run.
func main() {
	configPath := flag.String("config", "config.json", "path to the account configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal().Err(err).Msgf("Please fill missing credentials in %s", *configPath)
	}

	items, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		zlog.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load items catalog")
	}
	zlog.Info().Int("items", len(items)).Str("path", cfg.CatalogPath).Msg("Catalog loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.Load(cfg.SessionPath)
	if err != nil {
		zlog.Warn().Err(err).Msg("Could not load persisted session, will log in with credentials")
	}

	client, err := market.NewClient(cfg, sess)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to build marketplace client")
	}
	if err := client.Login(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to log into marketplace account")
	}

	var jrnl *journal.Journal
	if cfg.JournalPath != "" {
		jrnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			zlog.Warn().Err(err).Msg("Placement journal unavailable, continuing without it")
			jrnl = nil
		}
	}

	eng := engine.New(client, jrnl, engine.Config{
		Currency:          cfg.Currency,
		LimitMultiplier:   cfg.LimitMultiplier,
		MaxPasses:         cfg.MaxPasses,
		MaxItemAttempts:   cfg.MaxItemAttempts,
		AttemptDelay:      cfg.AttemptDelay,
		BalanceRetries:    cfg.BalanceRetries,
		BalanceRetryDelay: cfg.BalanceRetryDelay,
	})

	summary, err := eng.Run(ctx, items)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Run aborted")
	}

	report(summary, cfg.Currency)
}

func report(s *engine.Summary, currency string) {
	if s.LimitExhausted {
		zlog.Warn().
			Stringer("committed", s.Committed).
			Stringer("order_limit", s.OrderLimit).
			Str("currency", currency).
			Msg("Couldn't place buy orders: sum of active orders exceeds the limit")
		return
	}

	for _, res := range s.Placed {
		zlog.Info().
			Str("item", res.Item.Name).
			Str("order_id", res.OrderID).
			Int("attempts", res.Attempts).
			Msg("Placed")
	}
	for _, res := range s.Failed {
		zlog.Warn().
			Str("item", res.Item.Name).
			Str("reason", res.Reason).
			Int("attempts", res.Attempts).
			Msg("Not placed")
	}

	zlog.Info().
		Int("placed", len(s.Placed)).
		Int("failed", len(s.Failed)).
		Int("already_ordered", s.AlreadyOrdered).
		Stringer("committed", s.Committed).
		Stringer("available", s.Available).
		Str("currency", currency).
		Msg("Finished processing of all items")
}
