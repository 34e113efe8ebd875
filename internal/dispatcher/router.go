package dispatcher

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/corvid-labs/jira-bridge/internal/auth"
	"github.com/corvid-labs/jira-bridge/internal/config"
	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/ratelimit"
)

// webhookRateLimit caps inbound webhook volume per remote address; a
// misbehaving or misconfigured remote instance shouldn't be able to flood
// the reconciler.
const (
	webhookBucketCapacity = 30
	webhookRefillPerSec   = 5.0
)

// Routes builds the HTTP router: unauthenticated webhook + health
// endpoints, and operator-bearer-token-protected scheduled/manual
// endpoints.
func Routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthHandler)

	limiter := ratelimit.NewLimiter(webhookBucketCapacity, webhookRefillPerSec)
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter))
		r.Post("/left/webhook", WebhookHandler(model.Left, true))
		r.Post("/right/webhook", WebhookHandler(model.Right, true))
		r.Post("/webhook", WebhookHandler(0, false))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.Config{HS256Secret: cfg.OperatorToken}))
		r.Post("/scheduled", ScheduledHandler)
		r.Post("/manual", ManualHandler)
	})

	return r
}
