// Package config loads the sync engine's runtime configuration from
// environment variables.
package config

import (
	"time"

	"github.com/corvid-labs/jira-bridge/internal/db"
)

// SideConfig holds remote credentials and project scope for one side.
type SideConfig struct {
	BaseURL    string
	Username   string
	APIToken   string
	ProjectKey string
}

// Config is the full runtime configuration for the sync engine.
type Config struct {
	Left  SideConfig
	Right SideConfig

	DatabaseURL string

	DBMaxConns                 int
	DBMinConns                 int
	DBMaxConnLifetimeSeconds   int
	DBMaxConnIdleTimeSeconds   int
	DBHealthCheckPeriodSeconds int

	WebhookSecret string

	SyncIntervalSeconds int
	MaxRetries          int
	RetryDelaySeconds   int

	SyncStatusTransitions bool
	SyncAssignee          bool
	SyncComments          bool

	// OperatorToken authenticates the scheduled/manual operator endpoints
	// (HS256 bearer, no multi-tenant OIDC concept in this engine).
	OperatorToken string
}

// SyncInterval returns SyncIntervalSeconds as a time.Duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// RetryDelay returns RetryDelaySeconds as a time.Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// DBPoolConfig builds the pool tuning db.Open needs from the *Seconds
// fields above.
func (c *Config) DBPoolConfig() db.PoolConfig {
	return db.PoolConfig{
		MaxConns:          int32(c.DBMaxConns),
		MinConns:          int32(c.DBMinConns),
		MaxConnLifetime:   time.Duration(c.DBMaxConnLifetimeSeconds) * time.Second,
		MaxConnIdleTime:   time.Duration(c.DBMaxConnIdleTimeSeconds) * time.Second,
		HealthCheckPeriod: time.Duration(c.DBHealthCheckPeriodSeconds) * time.Second,
	}
}

// DefaultConfig returns the engine's baseline configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncIntervalSeconds:   300,
		MaxRetries:            3,
		RetryDelaySeconds:     5,
		SyncStatusTransitions: true,
		SyncAssignee:          false,
		SyncComments:          true,

		DBMaxConns:                 20,
		DBMinConns:                 2,
		DBMaxConnLifetimeSeconds:   3600,
		DBMaxConnIdleTimeSeconds:   1800,
		DBHealthCheckPeriodSeconds: 60,
	}
}

// Validate checks that the configuration is complete enough to run.
func (c *Config) Validate() error {
	if err := c.Left.validate("LEFT"); err != nil {
		return err
	}
	if err := c.Right.validate("RIGHT"); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.WebhookSecret == "" {
		return ErrMissingWebhookSecret
	}
	return nil
}

func (s SideConfig) validate(side string) error {
	if s.BaseURL == "" || s.Username == "" || s.APIToken == "" || s.ProjectKey == "" {
		return &MissingSideConfigError{Side: side}
	}
	return nil
}
