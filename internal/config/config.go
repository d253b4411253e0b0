// Package config loads the gateway's configuration once at startup into a
// single immutable record. Per the "ambient credentials as module-scope
// booleans" design note, there is no package-level state here — every
// adapter receives a *Config at construction time and derives its own
// IsConfigured() from the fields it cares about.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the read-only configuration record handed to every adapter.
type Config struct {
	AppURL string
	Env    string // "production" or "development" — controls HTTPS-only egress
	Port   int

	// Upstream credentials. Empty means "not configured".
	CoinGeckoAPIKey string

	EthExplorerAPIKey string
	BtcExplorerAPIKey string

	StockPrimaryAPIKey  string
	StockFallbackAPIKey string
	FundamentalsAPIKey  string

	LLMAPIKey string

	// Downstream collaborators, out of core scope but read here so the
	// process can wire them if present.
	DatabaseURL string
	RedisAddr   string

	LogLevel string
	MockMode bool

	// Allowlist is the exhaustive set of hostnames egress is permitted to.
	Allowlist []string
}

// IsProduction reports whether HTTPS-only egress must be enforced.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment, loading a .env file first
// if one is present (development convenience; missing .env is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppURL: getEnv("APP_URL", "http://localhost:3000"),
		Env:    getEnv("NODE_ENV", "development"),
		Port:   getEnvAsInt("PORT", 8080),

		CoinGeckoAPIKey: getEnv("COINGECKO_API_KEY", ""),

		EthExplorerAPIKey: getEnv("ETHERSCAN_API_KEY", ""),
		BtcExplorerAPIKey: getEnv("BLOCKCHAIR_API_KEY", ""),

		StockPrimaryAPIKey:  getEnv("FMP_API_KEY", ""),
		StockFallbackAPIKey: getEnv("FINNHUB_API_KEY", ""),
		FundamentalsAPIKey:  getEnv("FMP_API_KEY", ""),

		LLMAPIKey: getEnv("GEMINI_API_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		MockMode: getEnvAsBool("MOCK_MODE", false),

		Allowlist: defaultAllowlist(),
	}

	if extra := getEnv("ALLOWLIST_EXTRA_HOSTS", ""); extra != "" {
		cfg.Allowlist = append(cfg.Allowlist, strings.Split(extra, ",")...)
	}

	return cfg, nil
}

func defaultAllowlist() []string {
	return []string{
		"api.coingecko.com",
		"api.etherscan.io",
		"api.blockchair.com",
		"financialmodelingprep.com",
		"finnhub.io",
		"generativelanguage.googleapis.com",
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// DefaultOutboundTimeout is the default per-call egress deadline (spec §5).
const DefaultOutboundTimeout = 10 * time.Second
