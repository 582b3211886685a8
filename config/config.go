// config/config.go
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppName        string
	Port           string
	DatabaseURL    string
	AllowedOrigins []string

	// Shared secret for /internal/* callers (cron, ops tooling)
	ServiceToken string

	RedisURL string

	Clerk struct {
		JWKSURL       string
		Issuer        string
		WebhookSecret string
	}

	Stripe struct {
		SecretKey     string
		WebhookSecret string
		Currency      string
	}

	Gemini struct {
		APIKey string
		Models []string
	}

	R2 struct {
		AccountID       string
		AccessKeyID     string
		AccessKeySecret string
		Bucket          string
		CDNBaseURL      string
	}

	YouTubeAPIKey      string
	ViewScraperURL     string
	LinkPreviewURL     string
	ViewRefreshEvery   time.Duration
	ReconcileEvery     time.Duration
	HTTPTimeout        time.Duration
	HTTPRetryCount     int
	RefreshConcurrency int
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable not set")

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		AppName:      getEnv("APP_NAME", "ugcbounty"),
		Port:         getEnv("PORT", "5200"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ServiceToken: os.Getenv("SERVICE_TOKEN"),
		RedisURL:     os.Getenv("REDIS_URL"),

		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
		ViewScraperURL:     os.Getenv("VIEW_SCRAPER_URL"),
		LinkPreviewURL:     getEnv("LINK_PREVIEW_URL", "https://api.microlink.io"),
		ViewRefreshEvery:   getDuration("VIEW_REFRESH_INTERVAL", 30*time.Minute),
		ReconcileEvery:     getDuration("PAYMENT_RECONCILE_INTERVAL", time.Minute),
		HTTPTimeout:        getDuration("HTTP_TIMEOUT", 15*time.Second),
		HTTPRetryCount:     getInt("HTTP_RETRY_COUNT", 2),
		RefreshConcurrency: getInt("VIEW_REFRESH_CONCURRENCY", 5),
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"))

	cfg.Clerk.JWKSURL = os.Getenv("CLERK_JWKS_URL")
	cfg.Clerk.Issuer = os.Getenv("CLERK_ISSUER")
	cfg.Clerk.WebhookSecret = os.Getenv("CLERK_WEBHOOK_SECRET")

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.Stripe.Currency = strings.ToLower(getEnv("STRIPE_CURRENCY", "usd"))

	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Gemini.Models = splitList(getEnv("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.0-flash"))

	cfg.R2.AccountID = os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.AccessKeySecret = os.Getenv("R2_ACCESS_KEY_SECRET")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET_NAME")
	cfg.R2.CDNBaseURL = os.Getenv("CDN_BASE_URL")

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// R2Enabled reports whether logo uploads can go to object storage.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKeyID != "" && c.R2.Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("⚠️  %s=%q is not a positive integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️  %s=%q is not a valid duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
