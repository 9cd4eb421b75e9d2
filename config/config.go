package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	MailSendGrid = "sendgrid"
	MailSMTP     = "smtp"
	MailLog      = "log"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string

	Storage     string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	OTPTTL    time.Duration
	OTPLength int

	RateLimitRPM       int
	CORSAllowedOrigins []string

	MailProvider   string
	MailFrom       string
	MailFromName   string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string

	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	SlackWebhookURL string

	TMDBAPIKey  string
	TMDBBaseURL string

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SweepInterval time.Duration
}

// IsDevelopment reports whether the service runs in the local demo mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables (and an optional .env
// file). Development mode must be asked for with APP_ENV=development.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:        getEnv("APP_ENV", "production"),
		HTTPPort:           getEnv("PORT", "5000"),
		Storage:            strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           getDuration("TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:             getDuration("OTP_TTL", 10*time.Minute),
		OTPLength:          getInt("OTP_LENGTH", 6),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 180),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MailProvider:       strings.ToLower(getEnv("MAIL_PROVIDER", MailLog)),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@movieflix.local"),
		MailFromName:       getEnv("MAIL_FROM_NAME", "MovieFlix"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getInt("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		Currency:           getEnv("PAYMENT_CURRENCY", "INR"),
		SlackWebhookURL:    os.Getenv("SLACK_WEBHOOK_URL"),
		TMDBAPIKey:         os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:        getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory)),
		CacheTTL:           getDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		SweepInterval:      getDuration("SWEEP_INTERVAL", 5*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.JWTSecret = "dev_secret_change_me"
	}

	switch c.MailProvider {
	case MailSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=%s", MailSendGrid)
		}
	case MailSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_PROVIDER=%s", MailSMTP)
		}
	case MailLog:
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
