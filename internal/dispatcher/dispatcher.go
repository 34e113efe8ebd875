// Package dispatcher is the process entry point: it wires the remote
// clients, mapping store, and reconcilers into HTTP handlers for inbound
// webhooks, scheduled sweeps, and operator-driven manual sync.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvid-labs/jira-bridge/internal/config"
	"github.com/corvid-labs/jira-bridge/internal/jiraclient"
	"github.com/corvid-labs/jira-bridge/internal/reconciler"
	"github.com/corvid-labs/jira-bridge/internal/store"
)

// Dispatcher is the process-wide singleton holding the configured clients,
// store, and reconciler. It is lazily constructed on first invocation and
// safe for concurrent use by independent handler goroutines.
type Dispatcher struct {
	cfg         *config.Config
	store       *store.Store
	clients     reconciler.Clients
	reconciler  *reconciler.Reconciler
}

var (
	instance   *Dispatcher
	instanceMu sync.Mutex
)

// Get returns the process-wide Dispatcher, constructing it on first call.
// Construction runs under a mutex so concurrent handler invocations never
// race on first use. A construction failure is never cached: storage and
// config loading are treated as transient at the request level, so the
// next call to Get retries newDispatcher rather than returning the same
// error forever.
func Get(ctx context.Context) (*Dispatcher, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	d, err := newDispatcher(ctx)
	if err != nil {
		return nil, err
	}
	instance = d
	return instance, nil
}

func newDispatcher(ctx context.Context) (*Dispatcher, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clients := reconciler.Clients{
		Left: jiraclient.New(jiraclient.Config{
			BaseURL:       cfg.Left.BaseURL,
			Username:      cfg.Left.Username,
			APIToken:      cfg.Left.APIToken,
			ProjectKey:    cfg.Left.ProjectKey,
			InstanceLabel: "left",
		}),
		Right: jiraclient.New(jiraclient.Config{
			BaseURL:       cfg.Right.BaseURL,
			Username:      cfg.Right.Username,
			APIToken:      cfg.Right.APIToken,
			ProjectKey:    cfg.Right.ProjectKey,
			InstanceLabel: "right",
		}),
	}

	return &Dispatcher{
		cfg:        cfg,
		store:      st,
		clients:    clients,
		reconciler: reconciler.New(clients, st, cfg),
	}, nil
}

// reset clears the singleton; used only by tests.
func reset() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}
