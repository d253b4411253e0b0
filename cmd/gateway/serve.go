package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/config"
	"github.com/Lerner98/TickerHub-sub000/internal/dispatch"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/blockchain"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/crypto"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/explorer"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/fundamentals"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/llm"
	"github.com/Lerner98/TickerHub-sub000/internal/providers/stocks"
	"github.com/Lerner98/TickerHub-sub000/internal/ratelimit"
	"github.com/Lerner98/TickerHub-sub000/internal/statsstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	c := cache.New()
	f := fetch.New(cfg.Allowlist, cfg.IsProduction())

	stats, err := statsstore.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Warn().Err(err).Msg("statsstore unavailable, counters will be in-process only")
		stats, _ = statsstore.Open("", log)
	}

	cryptoAdapter := crypto.New(c, f, cfg.CoinGeckoAPIKey)
	ethAdapter := blockchain.New(blockchain.Ethereum, c, f, "https://api.etherscan.io/api", cfg.EthExplorerAPIKey)
	btcAdapter := blockchain.New(blockchain.Bitcoin, c, f, "https://api.blockchair.com/bitcoin", cfg.BtcExplorerAPIKey)
	explorerAdapter := explorer.New(c, f,
		"https://api.etherscan.io/api", cfg.EthExplorerAPIKey,
		"https://api.blockchair.com/bitcoin", cfg.BtcExplorerAPIKey)
	stocksAdapter := stocks.New(c, f, cfg.StockPrimaryAPIKey, cfg.StockFallbackAPIKey)
	fundamentalsAdapter := fundamentals.New(c, f, cfg.FundamentalsAPIKey)
	llmWrapper := llm.New(c, f, cfg.LLMAPIKey, 15, time.Minute)
	if cfg.RedisAddr != "" {
		llmWrapper = llmWrapper.WithSharedCounter(ratelimit.NewRedisCounter(cfg.RedisAddr))
	}

	srv := dispatch.New(cfg, log, dispatch.Deps{
		Crypto: cryptoAdapter,
		Blockchain: map[string]dispatch.BlockchainAdapter{
			"ethereum": ethAdapter,
			"bitcoin":  btcAdapter,
		},
		Explorer:     explorerAdapter,
		Stocks:       stocksAdapter,
		Fundamentals: fundamentalsAdapter,
		LLM:          llmWrapper,
		Stats:        stats,
		Cache:        c,
		MockMode:     cfg.MockMode,
		StartedAt:    time.Now(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stats != nil {
		defer stats.Close()
	}
	return srv.Shutdown(ctx)
}
