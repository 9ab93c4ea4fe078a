package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/announce"
	"github.com/chainnote/chainnote-go/pkg/config"
	"github.com/chainnote/chainnote-go/pkg/logger"
	"github.com/chainnote/chainnote-go/pkg/pipeline"
	"github.com/chainnote/chainnote-go/pkg/presence"
	presencememory "github.com/chainnote/chainnote-go/pkg/presence/memory"
	presenceredis "github.com/chainnote/chainnote-go/pkg/presence/redis"
	"github.com/chainnote/chainnote-go/pkg/reply"
	"github.com/chainnote/chainnote-go/pkg/transaction"
	"github.com/chainnote/chainnote-go/pkg/webhook"
)

func main() {
	app := &cli.App{
		Name:  "chainnote-server",
		Usage: "Chat-to-ledger note bridge",
		Description: `Receives chat webhook deliveries, records qualifying messages as
zero-value transfer transactions on a distributed ledger, and replies in the
originating chat thread with a viewer link or a diagnostic.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "network",
				Aliases:  []string{"n"},
				Usage:    fmt.Sprintf("Ledger network: %s", config.GetSupportedNetworksString()),
				EnvVars:  []string{config.EnvNetwork},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "node-url",
				Usage:   "Ledger node base URL (defaults per network)",
				EnvVars: []string{config.EnvNodeURL},
			},
			&cli.StringFlag{
				Name:     "channel-secret",
				Usage:    "Shared secret for webhook signature verification",
				EnvVars:  []string{config.EnvChannelSecret},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "channel-token",
				Usage:    "Bearer token for the reply channel",
				EnvVars:  []string{config.EnvChannelToken},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "reply-url",
				Usage:    "Reply endpoint base URL",
				EnvVars:  []string{config.EnvReplyURL},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "private-key",
				Usage:    "ed25519 signing key seed (64 hex chars)",
				EnvVars:  []string{config.EnvPrivateKey},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "recipient",
				Usage:   "Fixed recipient address (default: signer's own address)",
				EnvVars: []string{config.EnvRecipient},
			},
			&cli.Uint64Flag{
				Name:    "fee-multiplier",
				Value:   100,
				Usage:   "Fee multiplier attached to every transaction",
				EnvVars: []string{config.EnvFeeMultiplier},
			},
			&cli.IntFlag{
				Name:    "deadline-hours",
				Value:   1,
				Usage:   "Transaction deadline horizon in hours",
				EnvVars: []string{config.EnvDeadlineHours},
			},
			&cli.DurationFlag{
				Name:    "announce-timeout",
				Value:   announce.DefaultTimeout,
				Usage:   "Hard budget for one announce attempt",
				EnvVars: []string{config.EnvAnnounceTimeout},
			},
			&cli.IntFlag{
				Name:    "message-budget",
				Value:   1023,
				Usage:   "Byte budget for the embedded note",
				EnvVars: []string{config.EnvMessageBudget},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Optional redis URL for a shared presence store",
				EnvVars: []string{config.EnvRedisURL},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvPort},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := &config.Config{
		Network:         config.NetworkName(c.String("network")),
		NodeURL:         c.String("node-url"),
		ChannelSecret:   c.String("channel-secret"),
		ChannelToken:    c.String("channel-token"),
		ReplyURL:        c.String("reply-url"),
		PrivateKey:      c.String("private-key"),
		Recipient:       c.String("recipient"),
		FeeMultiplier:   c.Uint64("fee-multiplier"),
		Deadline:        time.Duration(c.Int("deadline-hours")) * time.Hour,
		AnnounceTimeout: c.Duration("announce-timeout"),
		MessageBudget:   c.Int("message-budget"),
		RedisURL:        c.String("redis-url"),
		Port:            c.Int("port"),
		Verbose:         c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l.Sugar().Infow("Using network",
		"name", cfg.Params.Name,
		"unit_id", cfg.Params.UnitID,
		"node_url", cfg.NodeURL,
	)

	signer, err := transaction.NewPrivateKeySigner(cfg.PrivateKey, l)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	recipient := cfg.Recipient
	if recipient == "" {
		recipient = signer.Address()
		l.Info("no fixed recipient configured, using signer's own address",
			zap.String("recipient", recipient))
	}

	store, err := newPresenceStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to create presence store: %w", err)
	}
	defer func() { _ = store.Close() }()

	p := pipeline.New(
		cfg.MessageBudget,
		transaction.NewBuilder(cfg.Params, recipient, cfg.Deadline, cfg.FeeMultiplier),
		signer,
		announce.NewClient(cfg.NodeURL, cfg.AnnounceTimeout, l),
		reply.NewRouter(cfg.Params),
		reply.NewClient(cfg.ReplyURL, cfg.ChannelToken, l),
		store,
		l,
	)

	server := webhook.NewServer(cfg.Port, cfg.ChannelSecret, p, l)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start webhook server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	l.Sugar().Infow("Shutting down", "signal", sig.String())

	return server.Stop()
}

func newPresenceStore(cfg *config.Config, l *zap.Logger) (presence.Store, error) {
	if cfg.RedisURL != "" {
		return presenceredis.NewRedisStore(cfg.RedisURL, presence.DefaultTTL, l)
	}
	return presencememory.NewMemoryStore(presence.DefaultTTL), nil
}
