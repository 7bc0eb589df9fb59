package config

import (
	"encoding/hex"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. It is built once at startup and
// passed by parameter; no component reads the environment directly.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// External OAuth Providers (user sign-in)
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL    string `mapstructure:"FRONTEND_BASE_URL"`

	// Accounting provider (ledger mirror)
	BooksClientID       string `mapstructure:"BOOKS_CLIENT_ID"`
	BooksClientSecret   string `mapstructure:"BOOKS_CLIENT_SECRET"`
	BooksRedirectURL    string `mapstructure:"BOOKS_REDIRECT_URL"`
	BooksAPIBaseURL     string `mapstructure:"BOOKS_API_BASE_URL"`
	BooksAuthURL        string `mapstructure:"BOOKS_AUTH_URL"`
	BooksTokenURL       string `mapstructure:"BOOKS_TOKEN_URL"`
	TokenRefreshMargin  time.Duration
	CredentialCipherKey []byte // 32 bytes, hex-encoded in the environment

	PosthogAPIKey  string `mapstructure:"POSTHOG_API_KEY"`
	QueryRateLimit string `mapstructure:"QUERY_RATE_LIMIT"`

	// Language model provider
	LLMAPIKey         string `mapstructure:"LLM_API_KEY"`
	LLMBaseURL        string `mapstructure:"LLM_BASE_URL"`
	LLMModel          string `mapstructure:"LLM_MODEL"`
	LLMEmbeddingModel string `mapstructure:"LLM_EMBEDDING_MODEL"`
	LLMTimeout        time.Duration
	LLMMaxTokens      int

	// Query planner bounds
	QueryRowLimit              int
	EmbeddingCoverageThreshold float64
	SemanticTopK               int
	SemanticLookbackYears      int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "finlens-backend")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("BOOKS_CLIENT_ID", "")
	viper.SetDefault("BOOKS_CLIENT_SECRET", "")
	viper.SetDefault("BOOKS_REDIRECT_URL", "")
	viper.SetDefault("BOOKS_API_BASE_URL", "https://quickbooks.api.intuit.com")
	viper.SetDefault("BOOKS_AUTH_URL", "https://appcenter.intuit.com/connect/oauth2")
	viper.SetDefault("BOOKS_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer")
	viper.SetDefault("TOKEN_REFRESH_MARGIN", "90s")
	viper.SetDefault("CREDENTIAL_CIPHER_KEY", "")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("QUERY_RATE_LIMIT", "30-M")
	viper.SetDefault("LLM_API_KEY", "")
	viper.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("LLM_EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("LLM_TIMEOUT", "120s")
	viper.SetDefault("LLM_MAX_TOKENS", 2048)
	viper.SetDefault("QUERY_ROW_LIMIT", 24)
	viper.SetDefault("EMBEDDING_COVERAGE_THRESHOLD", 0.5)
	viper.SetDefault("SEMANTIC_TOP_K", 6)
	viper.SetDefault("SEMANTIC_LOOKBACK_YEARS", 3)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = parseDurationOr("JWT_EXPIRY_DURATION", time.Hour)
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	cfg.BooksClientID = viper.GetString("BOOKS_CLIENT_ID")
	cfg.BooksClientSecret = viper.GetString("BOOKS_CLIENT_SECRET")
	cfg.BooksRedirectURL = viper.GetString("BOOKS_REDIRECT_URL")
	cfg.BooksAPIBaseURL = viper.GetString("BOOKS_API_BASE_URL")
	cfg.BooksAuthURL = viper.GetString("BOOKS_AUTH_URL")
	cfg.BooksTokenURL = viper.GetString("BOOKS_TOKEN_URL")
	cfg.TokenRefreshMargin = parseDurationOr("TOKEN_REFRESH_MARGIN", 90*time.Second)

	cipherKeyHex := viper.GetString("CREDENTIAL_CIPHER_KEY")
	if cipherKeyHex == "" {
		log.Println("Warning: CREDENTIAL_CIPHER_KEY not set. Stored refresh tokens will not be sealed.")
	} else {
		key, err := hex.DecodeString(cipherKeyHex)
		if err != nil || len(key) != 32 {
			log.Println("Warning: CREDENTIAL_CIPHER_KEY is not 32 hex-encoded bytes. Stored refresh tokens will not be sealed.")
		} else {
			cfg.CredentialCipherKey = key
		}
	}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.QueryRateLimit = viper.GetString("QUERY_RATE_LIMIT")

	cfg.LLMAPIKey = viper.GetString("LLM_API_KEY")
	cfg.LLMBaseURL = viper.GetString("LLM_BASE_URL")
	cfg.LLMModel = viper.GetString("LLM_MODEL")
	cfg.LLMEmbeddingModel = viper.GetString("LLM_EMBEDDING_MODEL")
	cfg.LLMTimeout = parseDurationOr("LLM_TIMEOUT", 120*time.Second)
	cfg.LLMMaxTokens = viper.GetInt("LLM_MAX_TOKENS")

	cfg.QueryRowLimit = viper.GetInt("QUERY_ROW_LIMIT")
	cfg.EmbeddingCoverageThreshold = viper.GetFloat64("EMBEDDING_COVERAGE_THRESHOLD")
	cfg.SemanticTopK = viper.GetInt("SEMANTIC_TOP_K")
	cfg.SemanticLookbackYears = viper.GetInt("SEMANTIC_LOOKBACK_YEARS")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
