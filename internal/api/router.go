package api

import (
	"net/http"

	"protexwear-api/internal/logger"
	"protexwear-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every public route. Authentication runs before the rate
// limiter so signed-in callers are limited per user rather than per IP.
func NewRouter(h *Handler, auth *middleware.Authenticator, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(auth.Authenticate)
	r.Use(limiter.Middleware)

	r.Get("/health", h.Health)
	r.Get("/metrics", h.MetricsSnapshot)

	r.Post("/checkout", h.Checkout)
	r.Post("/shipping/calculate", h.CalculateShipping)
	r.Post("/webhook/stripe", h.Webhook.PaymentWebhookHandler)

	r.With(middleware.RequireUser).Get("/orders/{id}", h.GetOrder)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/orders", h.ListOrders)
		r.Post("/orders/{id}/events", h.ApplyOrderEvent)
	})

	return r
}
