package config

import (
	"os"
	"strconv"
)

// Load builds a Config from environment variables, falling back to
// DefaultConfig's values for anything unset.
func Load() *Config {
	cfg := DefaultConfig()

	cfg.Left = SideConfig{
		BaseURL:    os.Getenv("LEFT_BASE_URL"),
		Username:   os.Getenv("LEFT_USERNAME"),
		APIToken:   os.Getenv("LEFT_API_TOKEN"),
		ProjectKey: os.Getenv("LEFT_PROJECT_KEY"),
	}
	cfg.Right = SideConfig{
		BaseURL:    os.Getenv("RIGHT_BASE_URL"),
		Username:   os.Getenv("RIGHT_USERNAME"),
		APIToken:   os.Getenv("RIGHT_API_TOKEN"),
		ProjectKey: os.Getenv("RIGHT_PROJECT_KEY"),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	cfg.OperatorToken = os.Getenv("OPERATOR_TOKEN")

	cfg.DBMaxConns = envInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = envInt("DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMaxConnLifetimeSeconds = envInt("DB_MAX_CONN_LIFETIME_SECONDS", cfg.DBMaxConnLifetimeSeconds)
	cfg.DBMaxConnIdleTimeSeconds = envInt("DB_MAX_CONN_IDLE_SECONDS", cfg.DBMaxConnIdleTimeSeconds)
	cfg.DBHealthCheckPeriodSeconds = envInt("DB_HEALTH_CHECK_PERIOD_SECONDS", cfg.DBHealthCheckPeriodSeconds)

	cfg.SyncIntervalSeconds = envInt("SYNC_INTERVAL_SECONDS", cfg.SyncIntervalSeconds)
	cfg.MaxRetries = envInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelaySeconds = envInt("RETRY_DELAY_SECONDS", cfg.RetryDelaySeconds)

	cfg.SyncStatusTransitions = envBool("SYNC_STATUS_TRANSITIONS", cfg.SyncStatusTransitions)
	cfg.SyncAssignee = envBool("SYNC_ASSIGNEE", cfg.SyncAssignee)
	cfg.SyncComments = envBool("SYNC_COMMENTS", cfg.SyncComments)

	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
