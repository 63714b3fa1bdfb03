// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// environment mirrors the raw variables; decimal-valued knobs arrive as
// strings and are parsed in Load so a bad value fails at startup.
type environment struct {
	Port        string `env:"PORT,default=8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	JWTSecret        string        `env:"JWT_SECRET,required"`
	TokenTTL         time.Duration `env:"TOKEN_TTL,default=168h"`
	AdminSetupSecret string        `env:"ADMIN_SETUP_SECRET"`

	PostbackSecret string `env:"POSTBACK_SECRET,required"`
	PointsPerUSD   string `env:"POINTS_PER_USD,default=100"`
	ReferralRate   string `env:"REFERRAL_LIFETIME_RATE,default=0"`
	SignupBonus    int64  `env:"REFERRAL_SIGNUP_BONUS,default=0"`
	DedupWindow    time.Duration `env:"EARN_DEDUP_WINDOW,default=48h"`

	OffersAPIKey string        `env:"OFFERS_API_KEY"`
	OffersAPIURL string        `env:"OFFERS_API_URL,default=https://lockerpreview.com/api/v2"`
	OffersTimeout time.Duration `env:"OFFERS_TIMEOUT,default=10s"`

	CORSOrigin string `env:"CORS_ORIGIN,default=http://localhost:3000"`

	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE,default=200"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
	LogPretty          bool   `env:"LOG_PRETTY,default=false"`
}

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret        string
	TokenTTL         time.Duration
	AdminSetupSecret string

	PostbackSecret string
	PointsPerUSD   decimal.Decimal
	ReferralRate   decimal.Decimal
	SignupBonus    int64
	DedupWindow    time.Duration

	OffersAPIKey  string
	OffersAPIURL  string
	OffersTimeout time.Duration

	CORSOrigins []string

	RateLimitPerMinute int
	LogLevel           string
	LogPretty          bool
}

// Load reads an optional .env file and decodes the environment. The
// referral rate is clamped to [0, 1].
func Load() (Config, error) {
	_ = godotenv.Load()

	var e environment
	if err := envdecode.Decode(&e); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	perUSD, err := decimal.NewFromString(e.PointsPerUSD)
	if err != nil {
		return Config{}, fmt.Errorf("parse POINTS_PER_USD: %w", err)
	}
	if perUSD.Sign() <= 0 {
		return Config{}, fmt.Errorf("POINTS_PER_USD must be positive, got %s", perUSD)
	}

	rate, err := decimal.NewFromString(e.ReferralRate)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFERRAL_LIFETIME_RATE: %w", err)
	}
	rate = clampRate(rate)

	return Config{
		Port:               e.Port,
		DatabaseURL:        e.DatabaseURL,
		JWTSecret:          e.JWTSecret,
		TokenTTL:           e.TokenTTL,
		AdminSetupSecret:   e.AdminSetupSecret,
		PostbackSecret:     e.PostbackSecret,
		PointsPerUSD:       perUSD,
		ReferralRate:       rate,
		SignupBonus:        e.SignupBonus,
		DedupWindow:        e.DedupWindow,
		OffersAPIKey:       e.OffersAPIKey,
		OffersAPIURL:       e.OffersAPIURL,
		OffersTimeout:      e.OffersTimeout,
		CORSOrigins:        splitOrigins(e.CORSOrigin),
		RateLimitPerMinute: e.RateLimitPerMinute,
		LogLevel:           e.LogLevel,
		LogPretty:          e.LogPretty,
	}, nil
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if rate.Sign() < 0 {
		return decimal.Zero
	}
	if rate.GreaterThan(one) {
		return one
	}
	return rate
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
