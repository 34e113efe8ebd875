package config

import (
	"testing"
	"time"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("LEFT_BASE_URL", "https://left.example.com")
	t.Setenv("LEFT_USERNAME", "bot")
	t.Setenv("LEFT_API_TOKEN", "token")
	t.Setenv("LEFT_PROJECT_KEY", "PROJ")
	t.Setenv("RIGHT_BASE_URL", "https://right.example.com")
	t.Setenv("RIGHT_USERNAME", "bot")
	t.Setenv("RIGHT_API_TOKEN", "token")
	t.Setenv("RIGHT_PROJECT_KEY", "RPROJ")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("WEBHOOK_SECRET", "shh")

	cfg := Load()

	if cfg.SyncIntervalSeconds != 300 || cfg.MaxRetries != 3 || cfg.RetryDelaySeconds != 5 {
		t.Fatalf("expected baseline defaults, got %+v", cfg)
	}
	if !cfg.SyncStatusTransitions || cfg.SyncAssignee || !cfg.SyncComments {
		t.Fatalf("unexpected boolean defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("SYNC_ASSIGNEE", "true")
	t.Setenv("MAX_RETRIES", "7")

	cfg := Load()
	if !cfg.SyncAssignee || cfg.MaxRetries != 7 {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
}

func TestLoad_DBPoolDefaultsAndOverrides(t *testing.T) {
	cfg := DefaultConfig()
	pc := cfg.DBPoolConfig()
	if pc.MaxConns != 20 || pc.MinConns != 2 {
		t.Fatalf("unexpected default pool sizing: %+v", pc)
	}
	if pc.MaxConnLifetime != time.Hour || pc.MaxConnIdleTime != 30*time.Minute || pc.HealthCheckPeriod != time.Minute {
		t.Fatalf("unexpected default pool durations: %+v", pc)
	}

	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_HEALTH_CHECK_PERIOD_SECONDS", "15")

	loaded := Load().DBPoolConfig()
	if loaded.MaxConns != 40 {
		t.Fatalf("expected DB_MAX_CONNS override to apply, got %d", loaded.MaxConns)
	}
	if loaded.HealthCheckPeriod != 15*time.Second {
		t.Fatalf("expected DB_HEALTH_CHECK_PERIOD_SECONDS override to apply, got %s", loaded.HealthCheckPeriod)
	}
}

func TestValidate_MissingSideIsError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DatabaseURL = "postgres://localhost/test"
	cfg.WebhookSecret = "shh"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing side config")
	}
	if _, ok := err.(*MissingSideConfigError); !ok {
		t.Fatalf("expected MissingSideConfigError, got %T: %v", err, err)
	}
}
