package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Webhooks  WebhookConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Site      SiteConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// UpstreamConfig points at the REST API that owns all persistent state.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type WebhookConfig struct {
	BaseURL      string
	AirtablePath string
	SlackPath    string
	WhatsAppPath string
	EmailPath    string
	Timeout      time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
	FlowTTL      time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// SiteConfig holds the browser routes the back office navigates to.
type SiteConfig struct {
	LoginPath         string
	DashboardPath     string
	AdminPath         string
	ConfirmationPath  string
	TieredBookingPath string
	Timezone          string
}

func Load() *Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
			Timeout: getDuration("API_TIMEOUT", 30*time.Second),
		},
		Webhooks: WebhookConfig{
			BaseURL:      strings.TrimRight(getEnv("WEBHOOK_BASE_URL", "http://localhost:3000"), "/"),
			AirtablePath: getEnv("WEBHOOK_AIRTABLE_PATH", "/api/webhooks/airtable"),
			SlackPath:    getEnv("WEBHOOK_SLACK_PATH", "/api/webhooks/slack"),
			WhatsAppPath: getEnv("WEBHOOK_WHATSAPP_PATH", "/api/webhooks/whatsapp"),
			EmailPath:    getEnv("WEBHOOK_EMAIL_PATH", "/api/notifications/email"),
			Timeout:      getDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getBool("NATS_ENABLED", false),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "concierge_sid"),
			CookieSecure: getBool("SESSION_COOKIE_SECURE", false),
			TTL:          getDuration("SESSION_TTL", 7*24*time.Hour),
			FlowTTL:      getDuration("BOOKING_FLOW_TTL", 2*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getInt("RATE_LIMIT_PER_MIN", 120),
			Burst:             getInt("RATE_LIMIT_BURST", 20),
		},
		Site: SiteConfig{
			LoginPath:         getEnv("SITE_LOGIN_PATH", "/login"),
			DashboardPath:     getEnv("SITE_DASHBOARD_PATH", "/dashboard"),
			AdminPath:         getEnv("SITE_ADMIN_PATH", "/admin"),
			ConfirmationPath:  getEnv("SITE_CONFIRMATION_PATH", "/booking/confirmation"),
			TieredBookingPath: getEnv("SITE_TIERED_BOOKING_PATH", "/booking/tier"),
			Timezone:          getEnv("SITE_TIMEZONE", "UTC"),
		},
	}
}

// Location resolves the configured site timezone, falling back to UTC.
func (s SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
