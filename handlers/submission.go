package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

func SetupSubmissionRoutes(app *fiber.App, auth fiber.Handler, submissionService *services.SubmissionService, recommendationService *services.RecommendationService) {
	app.Post("/submissions", auth, submissionService.CreateSubmission)
	app.Get("/submissions/me", auth, submissionService.ListMySubmissions)
	app.Post("/submissions/validate-batch", auth, submissionService.ValidateBatch)
	app.Patch("/submissions/:id/status", auth, submissionService.UpdateSubmissionStatus)

	app.Get("/recommendations", auth, recommendationService.GetRecommendations)
}
