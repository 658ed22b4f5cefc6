package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/ticket-bot/internal/observability"
)

// MetricsHandler serves the Prometheus registry.
func MetricsHandler(metrics *observability.Metrics) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
}
