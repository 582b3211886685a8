package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/utils"
)

const minTopUp = 1.0

// PaymentGateway is the slice of Stripe used for wallet top-ups.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return g.api.PaymentIntents.New(params)
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return g.api.PaymentIntents.Get(id, params)
}

type PaymentService struct {
	DB            *gorm.DB
	Gateway       PaymentGateway
	WebhookSecret string
	Currency      string
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, webhookSecret, currency string) *PaymentService {
	return &PaymentService{DB: db, Gateway: gateway, WebhookSecret: webhookSecret, Currency: currency}
}

type intentInput struct {
	Amount float64 `json:"amount"`
}

// CreatePaymentIntent starts a wallet top-up for a business user.
func (s *PaymentService) CreatePaymentIntent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := requireRole(s.DB.WithContext(ctx), c, models.RoleBusiness)
	if err != nil {
		return respondError(c, err)
	}

	var in intentInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	amount := utils.RoundCents(in.Amount)
	if amount < minTopUp {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "minimum top-up is " + utils.FormatMoney(minTopUp, s.Currency),
		})
	}

	intent, err := s.Gateway.CreateIntent(ctx, utils.ToMinorUnits(amount), s.Currency, map[string]string{
		"user_id": profile.ID,
	})
	if err != nil {
		zap.L().Error("[PAYMENT] stripe intent creation failed", zap.String("user_id", profile.ID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment provider unavailable"})
	}

	payment := &models.Payment{
		ID:                    uuid.NewString(),
		UserID:                profile.ID,
		StripePaymentIntentID: intent.ID,
		Amount:                amount,
		Currency:              s.Currency,
		Status:                models.PaymentPending,
	}
	if err := s.DB.WithContext(ctx).Create(payment).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_id":        payment.ID,
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            amount,
		"currency":          s.Currency,
	})
}

// HandleStripeWebhook verifies the Stripe-Signature header and settles the
// referenced payment. Redeliveries are harmless.
func (s *PaymentService) HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEventWithOptions(c.Body(), c.Get("Stripe-Signature"), s.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		zap.L().Warn("[PAYMENT] webhook signature rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook signature"})
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		return c.JSON(fiber.Map{"received": true})
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment intent payload"})
	}

	ctx := c.UserContext()
	if event.Type == stripe.EventTypePaymentIntentSucceeded {
		err = s.CreditIntent(ctx, &intent)
	} else {
		err = s.markFailed(ctx, intent.ID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}

// CreditIntent credits a succeeded intent to its wallet exactly once.
// Intents we never recorded are adopted when their metadata names a user.
func (s *PaymentService) CreditIntent(ctx context.Context, intent *stripe.PaymentIntent) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		err := tx.Where("stripe_payment_intent_id = ?", intent.ID).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			userID := intent.Metadata["user_id"]
			if userID == "" {
				zap.L().Warn("[PAYMENT] unknown intent without user_id", zap.String("intent_id", intent.ID))
				return nil
			}
			payment = models.Payment{
				ID:                    uuid.NewString(),
				UserID:                userID,
				StripePaymentIntentID: intent.ID,
				Amount:                utils.FromMinorUnits(intent.Amount),
				Currency:              string(intent.Currency),
				Status:                models.PaymentPending,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND credited_at IS NULL", payment.ID).
			Updates(map[string]any{"status": models.PaymentSucceeded, "credited_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		credit := payment.Amount
		if intent.Amount > 0 {
			credit = utils.FromMinorUnits(intent.Amount)
		}
		res = tx.Model(&models.UserProfile{}).Where("id = ?", payment.UserID).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", credit))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("wallet owner %s not found", payment.UserID)
		}

		zap.L().Info("[PAYMENT] wallet credited",
			zap.String("user_id", payment.UserID),
			zap.String("intent_id", intent.ID),
			zap.Float64("amount", credit),
		)
		return nil
	})
}

func (s *PaymentService) markFailed(ctx context.Context, intentID string) error {
	return s.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("stripe_payment_intent_id = ? AND credited_at IS NULL", intentID).
		Update("status", models.PaymentFailed).Error
}

// ReconcilePending asks Stripe about payments that stayed pending longer
// than olderThan, covering webhooks that never arrived.
func (s *PaymentService) ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error) {
	var pending []models.Payment
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, time.Now().Add(-olderThan)).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	settled := 0
	for _, p := range pending {
		intent, err := s.Gateway.GetIntent(ctx, p.StripePaymentIntentID)
		if err != nil {
			zap.L().Warn("[PAYMENT] reconcile lookup failed", zap.String("intent_id", p.StripePaymentIntentID), zap.Error(err))
			continue
		}
		switch intent.Status {
		case stripe.PaymentIntentStatusSucceeded:
			if err := s.CreditIntent(ctx, intent); err != nil {
				zap.L().Error("[PAYMENT] reconcile credit failed", zap.String("intent_id", intent.ID), zap.Error(err))
				continue
			}
			settled++
		case stripe.PaymentIntentStatusCanceled:
			if err := s.markFailed(ctx, intent.ID); err != nil {
				zap.L().Error("[PAYMENT] reconcile mark failed", zap.String("intent_id", intent.ID), zap.Error(err))
				continue
			}
			settled++
		}
	}
	return settled, nil
}
