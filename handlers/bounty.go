package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

// SetupBountyRoutes mounts bounty browsing and management. Auth is attached
// per route so that public reads stay open.
func SetupBountyRoutes(app *fiber.App, auth fiber.Handler, bountyService *services.BountyService) {
	// public
	app.Get("/bounties", bountyService.ListBounties)
	app.Get("/bounties/:id", bountyService.GetBounty)
	app.Get("/bounties/:id/submissions", bountyService.GetBountySubmissions)

	// business owners
	app.Post("/bounties", auth, bountyService.CreateBounty)
	app.Put("/bounties/:id", auth, bountyService.UpdateBounty)
	app.Delete("/bounties/:id", auth, bountyService.DeleteBounty)
}
