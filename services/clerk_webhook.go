package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

// WebhookVerifier checks a signed webhook delivery. *svix.Webhook satisfies it.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// ClerkWebhookService mirrors Clerk users into user_profiles.
type ClerkWebhookService struct {
	DB       *gorm.DB
	Verifier WebhookVerifier
}

func NewClerkWebhookService(db *gorm.DB, signingSecret string) (*ClerkWebhookService, error) {
	wh, err := svix.NewWebhook(signingSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid clerk webhook secret: %w", err)
	}
	return &ClerkWebhookService{DB: db, Verifier: wh}, nil
}

type clerkEvent struct {
	Type string        `json:"type"`
	Data clerkUserData `json:"data"`
}

type clerkUserData struct {
	ID                    string  `json:"id"`
	Username              *string `json:"username"`
	FirstName             *string `json:"first_name"`
	PrimaryEmailAddressID string  `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (d clerkUserData) primaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (d clerkUserData) displayName() string {
	if d.Username != nil && *d.Username != "" {
		return *d.Username
	}
	if d.FirstName != nil {
		return *d.FirstName
	}
	return ""
}

// HandleClerkWebhook handles user.created, user.updated and user.deleted.
// Other event types are acknowledged and ignored.
func (s *ClerkWebhookService) HandleClerkWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	headers := http.Header{}
	for _, name := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		headers.Set(name, c.Get(name))
	}
	if err := s.Verifier.Verify(payload, headers); err != nil {
		zap.L().Warn("[CLERK] webhook signature rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook signature"})
	}

	var event clerkEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.Data.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook payload"})
	}

	db := s.DB.WithContext(c.UserContext())
	switch event.Type {
	case "user.created", "user.updated":
		profile := models.UserProfile{
			ID:       event.Data.ID,
			Email:    event.Data.primaryEmail(),
			Username: event.Data.displayName(),
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "username", "updated_at", "deleted_at"}),
		}).Create(&profile).Error
		if err != nil {
			return respondError(c, err)
		}
	case "user.deleted":
		if err := db.Delete(&models.UserProfile{}, "id = ?", event.Data.ID).Error; err != nil {
			return respondError(c, err)
		}
	default:
		zap.L().Debug("[CLERK] ignoring event", zap.String("type", event.Type))
		return c.SendStatus(fiber.StatusNoContent)
	}

	zap.L().Info("[CLERK] user synced", zap.String("type", event.Type), zap.String("user_id", event.Data.ID))
	return c.SendStatus(fiber.StatusNoContent)
}
