package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrOnboardingRequired  = errors.New("complete onboarding first")
	ErrForbidden           = errors.New("not allowed")
	ErrInvalidRole         = errors.New("role must be creator or business")
	ErrRoleAlreadySet      = errors.New("role already set")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrBountyCompleted     = errors.New("bounty budget is exhausted")
	ErrDuplicateSubmission = errors.New("this link was already submitted to the bounty")
	ErrBountyHasPayouts    = errors.New("bounty has approved submissions")
	ErrAIUnavailable       = errors.New("ai provider unavailable")
	ErrViewsUnavailable    = errors.New("view count unavailable for platform")
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrOnboardingRequired):
		return fiber.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, ErrRoleAlreadySet), errors.Is(err, ErrBountyCompleted),
		errors.Is(err, ErrDuplicateSubmission), errors.Is(err, ErrBountyHasPayouts):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidContentURL),
		errors.Is(err, ErrUnsupportedPlatform):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrAIUnavailable), errors.Is(err, ErrViewsUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"error": msg}. Unmapped errors are logged and hidden.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		zap.L().Error("[HTTP] unhandled error",
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(status).JSON(fiber.Map{"error": "not found"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// currentUserID reads the Clerk subject set by the auth middleware.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// ensureProfile returns the caller's profile, creating a bare row when the
// Clerk webhook has not delivered it yet.
func ensureProfile(db *gorm.DB, userID string) (*models.UserProfile, error) {
	profile := models.UserProfile{ID: userID}
	if err := db.Where(models.UserProfile{ID: userID}).FirstOrCreate(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// requireRole loads the caller and checks their onboarding role.
func requireRole(db *gorm.DB, c *fiber.Ctx, role models.UserRole) (*models.UserProfile, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	profile, err := ensureProfile(db, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role == nil {
		return nil, ErrOnboardingRequired
	}
	if *profile.Role != role {
		return nil, ErrForbidden
	}
	return profile, nil
}
