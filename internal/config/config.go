// Package config loads Atlas settings from the environment.
// Collection names are resolved once here and passed down, never read from globals.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/caarlos0/env/v11"
)

const (
	prodMainCollection = "pics.atmo.atlas.v0"
	prodVoteCollection = "votes.atmo.atlas.v0"
	devMainCollection  = "pics.atmo.atlas.dev"
	devVoteCollection  = "votes.atmo.atlas.dev"

	// MinSessionSecretLength is the shortest cookie secret the server accepts.
	MinSessionSecretLength = 32
)

// Config holds runtime settings shared by the server, CLI and reindex tool.
type Config struct {
	Dev bool `env:"ATLAS_DEV" envDefault:"false"`

	// Empty means "derive from Dev".
	MainCollection string `env:"ATLAS_MAIN_COLLECTION"`
	VoteCollection string `env:"ATLAS_VOTE_COLLECTION"`

	PDSURL        string `env:"PDS_URL" envDefault:"https://bsky.social"`
	Port          string `env:"APPVIEW_PORT" envDefault:"8081"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SessionSecret string `env:"SESSION_SECRET"`

	// Origins of the web client allowed to call the API with credentials.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Empty means the public jetstream worker for the production POI collection,
	// in dev mode too: dev builds vote on live POIs.
	CardFeedURL  string `env:"CARD_FEED_URL"`
	CardImageCDN string `env:"CARD_IMAGE_CDN" envDefault:"https://cdn.bsky.app/img/feed_fullsize/plain"`

	RateLimitWrites int           `env:"RATE_LIMIT_WRITES" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and resolves derived settings.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	if c.MainCollection == "" {
		c.MainCollection = prodMainCollection
		if c.Dev {
			c.MainCollection = devMainCollection
		}
	}
	if c.VoteCollection == "" {
		c.VoteCollection = prodVoteCollection
		if c.Dev {
			c.VoteCollection = devVoteCollection
		}
	}

	if _, err := syntax.ParseNSID(c.MainCollection); err != nil {
		return fmt.Errorf("ATLAS_MAIN_COLLECTION %q is not an NSID: %w", c.MainCollection, err)
	}
	if _, err := syntax.ParseNSID(c.VoteCollection); err != nil {
		return fmt.Errorf("ATLAS_VOTE_COLLECTION %q is not an NSID: %w", c.VoteCollection, err)
	}

	if c.CardFeedURL == "" {
		c.CardFeedURL = fmt.Sprintf("https://jetstream-worker.flobit-dev.workers.dev/records/%s?limit=100", prodMainCollection)
	}

	c.PDSURL = strings.TrimSuffix(c.PDSURL, "/")
	c.CardImageCDN = strings.TrimSuffix(c.CardImageCDN, "/")

	if c.RateLimitWrites <= 0 {
		return fmt.Errorf("RATE_LIMIT_WRITES must be positive, got %d", c.RateLimitWrites)
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLength)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
