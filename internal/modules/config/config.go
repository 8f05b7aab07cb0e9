package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings read from the environment.
type Config struct {
	Port          string
	APIBaseURL    string // optional override, see Resolver
	ServerBaseURL string // optional override, see Resolver
	DevAPIPort    string
	AllowedHosts  []string

	StoreDriver string // memory | postgres | sqlite
	DatabaseURL string
	SQLitePath  string

	ContentCacheTTL    time.Duration
	HTTPTimeout        time.Duration
	LogLevel           string
	CookieSecure       bool
	CheckoutRevalidate bool
	AuthRecheck        time.Duration

	AdminSearchDelay  time.Duration
	PublicSearchDelay time.Duration
}

// Load reads .env (if present) and the process environment.
// The returned bool reports whether a .env file was loaded.
func Load() (*Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		Port:               getenv("APP_PORT", "8080"),
		APIBaseURL:         strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		ServerBaseURL:      strings.TrimRight(os.Getenv("SERVER_BASE_URL"), "/"),
		DevAPIPort:         getenv("DEV_API_PORT", "5000"),
		AllowedHosts:       getlist("ALLOWED_HOSTS"),
		StoreDriver:        strings.ToLower(getenv("STORE_DRIVER", "memory")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getenv("SQLITE_PATH", "mama-web.db"),
		ContentCacheTTL:    getduration("CONTENT_CACHE_TTL", 5*time.Minute),
		HTTPTimeout:        getduration("HTTP_TIMEOUT", 10*time.Second),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		CookieSecure:       getbool("COOKIE_SECURE", false),
		CheckoutRevalidate: getbool("CHECKOUT_REVALIDATE", true),
		AuthRecheck:        getduration("AUTH_RECHECK_INTERVAL", 5*time.Minute),
		AdminSearchDelay:   500 * time.Millisecond,
		PublicSearchDelay:  300 * time.Millisecond,
	}
	return cfg, loaded
}

// Resolver builds the hostname resolver for this configuration.
func (c *Config) Resolver() *Resolver {
	return &Resolver{
		APIOverride:    c.APIBaseURL,
		ServerOverride: c.ServerBaseURL,
		DevPort:        c.DevAPIPort,
		AllowedHosts:   c.AllowedHosts,
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getlist splits a comma-separated variable, dropping blanks.
func getlist(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getbool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
