package config

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDatabaseURL   = errors.New("config: DATABASE_URL is required")
	ErrMissingWebhookSecret = errors.New("config: WEBHOOK_SECRET is required")
)

// MissingSideConfigError reports that one side's remote credentials are
// incomplete.
type MissingSideConfigError struct {
	Side string
}

func (e *MissingSideConfigError) Error() string {
	return fmt.Sprintf("config: %s_BASE_URL, %s_USERNAME, %s_API_TOKEN, and %s_PROJECT_KEY are all required",
		e.Side, e.Side, e.Side, e.Side)
}
