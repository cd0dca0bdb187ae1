package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the service.
type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	AuthSecret     string
	AuthIssuer     string
	Location       *time.Location
	TelegramToken  string
	DigestInterval time.Duration
	DigestAt       string
	Billing        BillingConfig
}

// BillingConfig points at the external billing provider. Billing routes are
// only mounted when Enabled reports true.
type BillingConfig struct {
	APIURL         string
	AccessToken    string
	OrganizationID string
}

func (b BillingConfig) Enabled() bool {
	return b.APIURL != "" && b.AccessToken != ""
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AuthSecret:    strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AuthIssuer:    strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DigestAt:      strings.TrimSpace(os.Getenv("DIGEST_AT")),
		Billing: BillingConfig{
			APIURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("BILLING_API_URL")), "/"),
			AccessToken:    strings.TrimSpace(os.Getenv("BILLING_ACCESS_TOKEN")),
			OrganizationID: strings.TrimSpace(os.Getenv("BILLING_ORGANIZATION_ID")),
		},
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskboard.db"
	}

	rawInterval, ok := os.LookupEnv("DIGEST_INTERVAL_HOURS")
	if !ok || strings.TrimSpace(rawInterval) == "" {
		cfg.DigestInterval = 24 * time.Hour
	} else {
		// An explicit 0 (or garbage) disables the interval digest.
		cfg.DigestInterval = parseInterval(strings.TrimSpace(rawInterval))
	}

	loc, err := loadLocation(strings.TrimSpace(os.Getenv("TIMEZONE")))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if cfg.AuthSecret == "" {
		return cfg, fmt.Errorf("AUTH_SECRET is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
