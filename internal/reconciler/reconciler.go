// Package reconciler implements the issue and comment reconcilers: given a
// source key/side, each fetches, diffs, and propagates state to the peer
// side, maintaining the mapping store.
package reconciler

import (
	"github.com/corvid-labs/jira-bridge/internal/config"
	"github.com/corvid-labs/jira-bridge/internal/jiraclient"
	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/store"
)

// Clients resolves a jiraclient for each side.
type Clients struct {
	Left  *jiraclient.Client
	Right *jiraclient.Client
}

// For returns the client for the given side.
func (c Clients) For(side model.Side) *jiraclient.Client {
	if side == model.Left {
		return c.Left
	}
	return c.Right
}

// Reconciler holds the dependencies shared by issue and comment
// reconciliation.
type Reconciler struct {
	clients Clients
	store   *store.Store
	cfg     *config.Config
}

// New builds a Reconciler.
func New(clients Clients, st *store.Store, cfg *config.Config) *Reconciler {
	return &Reconciler{clients: clients, store: st, cfg: cfg}
}
