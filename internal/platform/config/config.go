package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures everything the gate pipeline consumes. Values are validated
// here so services can assume well-formed thresholds.
type Config struct {
	Addr string

	PostgresDSN string
	RedisURL    string

	Providers Providers
	Fraud     Fraud
	Limits    Limits
}

// Providers holds credentials for the remote signal providers.
type Providers struct {
	OpenAIAPIKey      string
	VisionAPIKey      string
	ContentModAPIKey  string
	ContentModBaseURL string
	PerspectiveAPIKey string
	WorldcoinAPIKey   string
	CivicAPIKey       string
	EtherscanAPIKey   string

	// CallTimeout bounds every remote evaluator call. A timeout is treated
	// the same as a provider failure.
	CallTimeout time.Duration
}

// Fraud holds the scoring thresholds.
type Fraud struct {
	SimilarityThreshold float64
	SpamDetectionScore  float64
	VerifiedThreshold   float64 // below this overall score a token is marked verified
	SuspiciousThreshold float64 // at or above this a fraud log row is suspicious
	HighRiskThreshold   float64 // at or above this the gate rejects
}

// Limits holds the two independent creation caps.
type Limits struct {
	MaxTokensPerWallet  int           // lifetime hard cap, enforced by the ledger
	WeeklyCreationLimit int           // rolling soft cap, enforced by the gate
	CreationWindow      time.Duration // rolling window for the soft cap
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        getEnv("TOKENGATE_ADDR", ":8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Providers: Providers{
			OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
			VisionAPIKey:      os.Getenv("GOOGLE_VISION_API_KEY"),
			ContentModAPIKey:  os.Getenv("CONTENT_MODERATOR_API_KEY"),
			ContentModBaseURL: getEnv("CONTENT_MODERATOR_ENDPOINT", "https://westus.api.cognitive.microsoft.com"),
			PerspectiveAPIKey: os.Getenv("PERSPECTIVE_API_KEY"),
			WorldcoinAPIKey:   os.Getenv("WORLDCOIN_API_KEY"),
			CivicAPIKey:       os.Getenv("CIVIC_API_KEY"),
			EtherscanAPIKey:   os.Getenv("ETHERSCAN_API_KEY"),
		},
	}

	var err error
	if cfg.Providers.CallTimeout, err = getDuration("PROVIDER_CALL_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.Fraud.SimilarityThreshold, err = getScore("SIMILARITY_THRESHOLD", 0.85); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.SpamDetectionScore, err = getScore("SPAM_DETECTION_SCORE", 0.7); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.VerifiedThreshold, err = getScore("FRAUD_VERIFIED_THRESHOLD", 0.3); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.SuspiciousThreshold, err = getScore("FRAUD_SUSPICIOUS_THRESHOLD", 0.3); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.HighRiskThreshold, err = getScore("FRAUD_HIGH_RISK_THRESHOLD", 0.5); err != nil {
		return Config{}, err
	}

	if cfg.Limits.MaxTokensPerWallet, err = getInt("MAX_TOKENS_PER_WALLET", 5); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxTokensPerWallet < 1 || cfg.Limits.MaxTokensPerWallet > 10 {
		return Config{}, fmt.Errorf("MAX_TOKENS_PER_WALLET must be in [1,10], got %d", cfg.Limits.MaxTokensPerWallet)
	}
	if cfg.Limits.WeeklyCreationLimit, err = getInt("WEEKLY_CREATION_LIMIT", 3); err != nil {
		return Config{}, err
	}
	if cfg.Limits.WeeklyCreationLimit < 1 {
		return Config{}, fmt.Errorf("WEEKLY_CREATION_LIMIT must be positive, got %d", cfg.Limits.WeeklyCreationLimit)
	}
	if cfg.Limits.CreationWindow, err = getDuration("CREATION_WINDOW", 7*24*time.Hour); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getScore(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%s must be in [0,1], got %v", key, f)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
