package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	Database Database

	JWTSecret   string
	AdminAPIKey string

	Paymob Paymob
	SMTP   SMTP

	RedisURL        string
	CheckoutLockTTL time.Duration

	AllowedOrigins []string
}

type Database struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN prefers DATABASE_URL and falls back to the discrete settings.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Paymob struct {
	BaseURL       string
	APIKey        string
	IntegrationID int
	IframeID      int
	Currency      string
	HMACSecret    string
	Mode          string
}

// Enabled reports whether card payments can be dispatched.
func (p Paymob) Enabled() bool {
	return p.APIKey != "" && p.IntegrationID != 0 && p.IframeID != 0
}

type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s SMTP) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			Name:            getEnv("DB_NAME", "bakery"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		Paymob: Paymob{
			BaseURL:       getEnv("PAYMOB_BASE_URL", "https://accept.paymob.com"),
			APIKey:        os.Getenv("PAYMOB_API_KEY"),
			IntegrationID: getInt("PAYMOB_INTEGRATION_ID", 0),
			IframeID:      getInt("PAYMOB_IFRAME_ID", 0),
			Currency:      getEnv("PAYMOB_CURRENCY", "EGP"),
			HMACSecret:    os.Getenv("PAYMOB_HMAC_SECRET"),
			Mode:          strings.ToLower(getEnv("PAYMOB_MODE", "live")),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		RedisURL:        os.Getenv("REDIS_URL"),
		CheckoutLockTTL: getDuration("CHECKOUT_LOCK_TTL", 30*time.Second),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AdminAPIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required"))
	}
	if c.Paymob.Enabled() && c.Paymob.HMACSecret == "" && c.Paymob.Mode != "sandbox" {
		errs = append(errs, errors.New("PAYMOB_HMAC_SECRET is required outside sandbox mode"))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
