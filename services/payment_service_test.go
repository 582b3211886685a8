package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/testutil"
)

const stripeTestSecret = "whsec_test_secret"

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*stripe.PaymentIntent
	created int
	err     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*stripe.PaymentIntent{}}
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	pi := &stripe.PaymentIntent{
		ID:           "pi_test_" + string(rune('a'+f.created)),
		ClientSecret: "secret_" + string(rune('a'+f.created)),
		Amount:       amountCents,
		Currency:     stripe.Currency(currency),
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Metadata:     metadata,
	}
	f.intents[pi.ID] = pi
	return pi, nil
}

func (f *fakeGateway) GetIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pi, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such intent")
	}
	return pi, nil
}

func newPaymentApp(db *gorm.DB, gw PaymentGateway) (*fiber.App, *PaymentService) {
	svc := NewPaymentService(db, gw, stripeTestSecret, "usd")
	app := newTestApp(func(app *fiber.App) {
		app.Post("/payments/intent", svc.CreatePaymentIntent)
		app.Post("/webhooks/stripe", svc.HandleStripeWebhook)
	})
	return app, svc
}

func stripeEventRequest(t *testing.T, eventType stripe.EventType, intent map[string]any, secret string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_test",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": intent},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestCreatePaymentIntent(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 0)
	seedUser(t, db, "creator_1", models.RoleCreator, 0)
	gw := newFakeGateway()
	app, _ := newPaymentApp(db, gw)

	resp := doJSON(t, app, http.MethodPost, "/payments/intent", "biz_1", fiber.Map{"amount": 0.5})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/payments/intent", "creator_1", fiber.Map{"amount": 25})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/payments/intent", "biz_1", fiber.Map{"amount": 25.5})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.NotEmpty(t, out["client_secret"])

	var payment models.Payment
	require.NoError(t, db.First(&payment, "stripe_payment_intent_id = ?", out["payment_intent_id"]).Error)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.InDelta(t, 25.5, payment.Amount, 1e-9)
	assert.Equal(t, int64(2550), gw.intents[payment.StripePaymentIntentID].Amount)
	assert.Equal(t, "biz_1", gw.intents[payment.StripePaymentIntentID].Metadata["user_id"])
}

func TestCreatePaymentIntentGatewayDown(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 0)
	gw := newFakeGateway()
	gw.err = errors.New("stripe down")
	app, _ := newPaymentApp(db, gw)

	resp := doJSON(t, app, http.MethodPost, "/payments/intent", "biz_1", fiber.Map{"amount": 10})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestStripeWebhookCreditsOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 5)
	require.NoError(t, db.Create(&models.Payment{
		ID: "pay_1", UserID: "biz_1", StripePaymentIntentID: "pi_1",
		Amount: 20, Currency: "usd", Status: models.PaymentPending,
	}).Error)
	app, _ := newPaymentApp(db, newFakeGateway())

	intent := map[string]any{"id": "pi_1", "object": "payment_intent", "amount": 2000, "currency": "usd", "status": "succeeded"}
	for range 2 {
		resp, err := app.Test(stripeEventRequest(t, stripe.EventTypePaymentIntentSucceeded, intent, stripeTestSecret), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	assert.InDelta(t, 25, walletOf(t, db, "biz_1"), 1e-9)
	var payment models.Payment
	require.NoError(t, db.First(&payment, "id = ?", "pay_1").Error)
	assert.Equal(t, models.PaymentSucceeded, payment.Status)
	assert.NotNil(t, payment.CreditedAt)
}

func TestStripeWebhookAdoptsUnknownIntent(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 0)
	app, _ := newPaymentApp(db, newFakeGateway())

	intent := map[string]any{
		"id": "pi_unknown", "object": "payment_intent", "amount": 1234, "currency": "usd",
		"status": "succeeded", "metadata": map[string]string{"user_id": "biz_1"},
	}
	resp, err := app.Test(stripeEventRequest(t, stripe.EventTypePaymentIntentSucceeded, intent, stripeTestSecret), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.InDelta(t, 12.34, walletOf(t, db, "biz_1"), 1e-9)
}

func TestStripeWebhookFailureAndBadSignature(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 0)
	require.NoError(t, db.Create(&models.Payment{
		ID: "pay_1", UserID: "biz_1", StripePaymentIntentID: "pi_1",
		Amount: 20, Currency: "usd", Status: models.PaymentPending,
	}).Error)
	app, _ := newPaymentApp(db, newFakeGateway())
	intent := map[string]any{"id": "pi_1", "object": "payment_intent", "amount": 2000, "currency": "usd"}

	resp, err := app.Test(stripeEventRequest(t, stripe.EventTypePaymentIntentSucceeded, intent, "whsec_wrong"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(stripeEventRequest(t, stripe.EventTypePaymentIntentPaymentFailed, intent, stripeTestSecret), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "id = ?", "pay_1").Error)
	assert.Equal(t, models.PaymentFailed, payment.Status)
	assert.Zero(t, walletOf(t, db, "biz_1"))
}

func TestReconcilePending(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedUser(t, db, "biz_1", models.RoleBusiness, 0)
	gw := newFakeGateway()
	gw.intents["pi_paid"] = &stripe.PaymentIntent{ID: "pi_paid", Amount: 5000, Status: stripe.PaymentIntentStatusSucceeded}
	gw.intents["pi_cancel"] = &stripe.PaymentIntent{ID: "pi_cancel", Amount: 700, Status: stripe.PaymentIntentStatusCanceled}
	gw.intents["pi_fresh"] = &stripe.PaymentIntent{ID: "pi_fresh", Amount: 900, Status: stripe.PaymentIntentStatusSucceeded}

	old := time.Now().Add(-10 * time.Minute)
	for _, p := range []models.Payment{
		{ID: "p1", UserID: "biz_1", StripePaymentIntentID: "pi_paid", Amount: 50, Currency: "usd", Status: models.PaymentPending, CreatedAt: old},
		{ID: "p2", UserID: "biz_1", StripePaymentIntentID: "pi_cancel", Amount: 7, Currency: "usd", Status: models.PaymentPending, CreatedAt: old},
		{ID: "p3", UserID: "biz_1", StripePaymentIntentID: "pi_fresh", Amount: 9, Currency: "usd", Status: models.PaymentPending},
	} {
		require.NoError(t, db.Create(&p).Error)
	}
	_, svc := newPaymentApp(db, gw)

	settled, err := svc.ReconcilePending(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, settled)
	assert.InDelta(t, 50, walletOf(t, db, "biz_1"), 1e-9)

	var statuses []models.Payment
	require.NoError(t, db.Order("id").Find(&statuses).Error)
	assert.Equal(t, models.PaymentSucceeded, statuses[0].Status)
	assert.Equal(t, models.PaymentFailed, statuses[1].Status)
	assert.Equal(t, models.PaymentPending, statuses[2].Status)
}
