package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default protocol fee charged by the marketplace, in basis points.
const defaultFeeBps = 250

type Config struct {
	// Marketplace API
	OpenSeaAPIKey  string
	OpenSeaBaseURL string

	// HTTP server
	ListenAddr string

	// Per-chain RPC endpoints, keyed by chain slug
	RPCURLs map[string]string

	// Feature flags
	EnableFulfillment bool // build real fulfillment transactions
	EnableTestTx      bool // allow the zero-value self-transfer test path

	// Marketplace fee split applied when building listings
	FeeBps       int
	FeeRecipient string

	// Wallet (CLI tools only, never required by the server)
	PrivateKey string

	// Telegram notifications (optional)
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration for the gateway server. The OpenSea API key is
// mandatory: without it every upstream call would fail with an auth error,
// which callers could not tell apart from a marketplace outage.
func Load() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	cfg.OpenSeaAPIKey = os.Getenv("OPENSEA_API_KEY")
	if cfg.OpenSeaAPIKey == "" {
		return nil, errors.New("missing required config: OPENSEA_API_KEY")
	}

	return cfg, nil
}

// LoadWithPrivateKey loads config for CLI tools that sign with a local wallet.
// The API key is still required because listing and cancel flows go through
// the marketplace API.
func LoadWithPrivateKey() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	var missingFields []string

	cfg.OpenSeaAPIKey = os.Getenv("OPENSEA_API_KEY")
	if cfg.OpenSeaAPIKey == "" {
		missingFields = append(missingFields, "OPENSEA_API_KEY")
	}

	cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
	if cfg.PrivateKey == "" {
		missingFields = append(missingFields, "PRIVATE_KEY")
	}

	if len(missingFields) > 0 {
		return nil, fmt.Errorf("missing required config: %v", missingFields)
	}

	return cfg, nil
}

// LoadMinimal loads config without requiring credentials. Useful for
// commands that only encode calldata or inspect public chain state.
func LoadMinimal() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}
	cfg.OpenSeaAPIKey = os.Getenv("OPENSEA_API_KEY")
	cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
	return cfg, nil
}

func loadCommon() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional if env vars are set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		OpenSeaBaseURL:    getEnvString("OPENSEA_BASE_URL", "https://api.opensea.io"),
		ListenAddr:        getEnvString("LISTEN_ADDR", ":8080"),
		EnableFulfillment: getEnvBool("ENABLE_FULFILLMENT", false),
		EnableTestTx:      getEnvBool("ENABLE_TEST_TX", false),
		FeeBps:            getEnvInt("OPENSEA_FEE_BPS", defaultFeeBps),
		FeeRecipient:      getEnvString("FEE_RECIPIENT", "0x0000a26b00c1F0DF003000390027140000fAa719"),
		RPCURLs: map[string]string{
			"ethereum": getEnvString("RPC_URL_ETHEREUM", "https://eth.llamarpc.com"),
			"base":     getEnvString("RPC_URL_BASE", "https://mainnet.base.org"),
			"arbitrum": getEnvString("RPC_URL_ARBITRUM", "https://arb1.arbitrum.io/rpc"),
			"optimism": getEnvString("RPC_URL_OPTIMISM", "https://mainnet.optimism.io"),
		},
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	return cfg, nil
}

// HasTelegram returns true if Telegram notifications are configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// RPCURL returns the RPC endpoint for a chain slug, or empty string.
func (c *Config) RPCURL(chain string) string {
	return c.RPCURLs[chain]
}

// Validate performs runtime validation of config values.
func (c *Config) Validate() error {
	if c.FeeBps < 0 || c.FeeBps >= 10000 {
		return errors.New("OPENSEA_FEE_BPS must be in [0, 10000)")
	}
	if c.FeeRecipient == "" {
		return errors.New("FEE_RECIPIENT must not be empty")
	}
	return nil
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
