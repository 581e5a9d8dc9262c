package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// User directory backends
const (
	UserStorePostgres = "postgres"
	UserStoreMongo    = "mongo"
	UserStoreMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Environment string
	Port        string

	UserStore     string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	OTPSalt    string
	OTPTTL     time.Duration
	OTPDevMode bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	SiteName     string

	RateLimitRPM int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("APP_ENV", "production"),
		Port:          getEnv("PORT", "8080"),
		UserStore:     strings.ToLower(getEnv("USER_STORE", UserStorePostgres)),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MongoURI:      strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase: getEnv("MONGO_DATABASE", "lms"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SMTPHost:      strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		MailFrom:      getEnv("MAIL_FROM", "no-reply@localhost"),
		SiteName:      getEnv("SITE_NAME", "LMS"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = getInt("RATE_LIMIT_RPM", 120); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPDevMode, err = getBool("OTP_DEV_MODE", false); err != nil {
		return nil, err
	}

	switch cfg.UserStore {
	case UserStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required")
		}
		if _, err := url.Parse(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	case UserStoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable is required")
		}
	case UserStoreMemory:
	default:
		return nil, fmt.Errorf("unknown USER_STORE %q (want postgres, mongo or memory)", cfg.UserStore)
	}

	// Load JWT secrets (required)
	cfg.JWTAccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET environment variable is required")
	}
	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	if cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET environment variable is required")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// Load OTP_SALT (required)
	cfg.OTPSalt = os.Getenv("OTP_SALT")
	if cfg.OTPSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}

	return cfg, nil
}

// IsDevelopment reports whether APP_ENV selects development defaults
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
}
