package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VeinDevTtv/ugcbounty-sub000/middleware"
	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

// SetupWebhookRoutes mounts signed third-party callbacks. Either service may
// be nil when its provider is not configured.
func SetupWebhookRoutes(app *fiber.App, paymentService *services.PaymentService, clerkService *services.ClerkWebhookService) {
	if paymentService != nil {
		app.Post("/webhooks/stripe", paymentService.HandleStripeWebhook)
	}
	if clerkService != nil {
		app.Post("/webhooks/clerk", clerkService.HandleClerkWebhook)
	}
}

// SetupInternalRoutes mounts operator endpoints behind the service token.
func SetupInternalRoutes(app *fiber.App, serviceToken string, refreshService *services.RefreshService) {
	internal := app.Group("/internal", middleware.ServiceTokenMiddleware(serviceToken))
	internal.Post("/refresh-views", refreshService.TriggerRefresh)
}
