package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

func SetupAccountRoutes(app *fiber.App, auth fiber.Handler, userService *services.UserService, paymentService *services.PaymentService) {
	app.Get("/users/me", auth, userService.GetMe)
	app.Post("/users/onboarding", auth, userService.Onboard)

	if paymentService != nil {
		app.Post("/payments/intent", auth, paymentService.CreatePaymentIntent)
	}
}
