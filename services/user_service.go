package services

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

type onboardingInput struct {
	Role     models.UserRole `json:"role"`
	Username string          `json:"username"`
}

// GetMe returns the caller's profile, creating it on first sight.
func (s *UserService) GetMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := ensureProfile(s.DB.WithContext(c.UserContext()), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// Onboard sets the caller's role. A role can only be chosen once.
func (s *UserService) Onboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var in onboardingInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !in.Role.Valid() {
		return respondError(c, ErrInvalidRole)
	}

	profile, err := ensureProfile(s.DB.WithContext(ctx), userID)
	if err != nil {
		return respondError(c, err)
	}

	updates := map[string]any{"role": in.Role}
	if in.Username != "" {
		updates["username"] = in.Username
	}
	res := s.DB.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ? AND role IS NULL", userID).
		Updates(updates)
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return respondError(c, ErrRoleAlreadySet)
	}

	profile.Role = &in.Role
	if in.Username != "" {
		profile.Username = in.Username
	}
	zap.L().Info("[USER] onboarded", zap.String("user_id", userID), zap.String("role", string(in.Role)))
	return c.JSON(profile)
}
