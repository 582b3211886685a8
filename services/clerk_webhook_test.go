package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/testutil"
)

var clerkSigningKey = []byte("0123456789abcdef0123456789abcdef")

func clerkSecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString(clerkSigningKey)
}

func signedClerkRequest(t *testing.T, payload string, tamper bool) *http.Request {
	t.Helper()
	msgID := "msg_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	mac := hmac.New(sha256.New, clerkSigningKey)
	mac.Write([]byte(msgID + "." + ts + "." + payload))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if tamper {
		payload += " "
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,"+sig)
	return req
}

func newClerkApp(t *testing.T) (*fiber.App, *ClerkWebhookService) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc, err := NewClerkWebhookService(db, clerkSecret())
	require.NoError(t, err)
	app := fiber.New()
	app.Post("/webhooks/clerk", svc.HandleClerkWebhook)
	return app, svc
}

const clerkUserCreated = `{"type":"user.created","data":{"id":"user_2abc","username":"trailqueen",
"primary_email_address_id":"idn_2","email_addresses":[
{"id":"idn_1","email_address":"old@example.com"},{"id":"idn_2","email_address":"queen@example.com"}]}}`

func TestClerkWebhookUpsertsAndDeletes(t *testing.T) {
	app, svc := newClerkApp(t)

	resp, err := app.Test(signedClerkRequest(t, clerkUserCreated, false), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var profile models.UserProfile
	require.NoError(t, svc.DB.First(&profile, "id = ?", "user_2abc").Error)
	assert.Equal(t, "queen@example.com", profile.Email)
	assert.Equal(t, "trailqueen", profile.Username)

	updated := `{"type":"user.updated","data":{"id":"user_2abc","username":"trailking","primary_email_address_id":"idn_2",
"email_addresses":[{"id":"idn_2","email_address":"king@example.com"}]}}`
	resp, err = app.Test(signedClerkRequest(t, updated, false), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NoError(t, svc.DB.First(&profile, "id = ?", "user_2abc").Error)
	assert.Equal(t, "king@example.com", profile.Email)
	assert.Equal(t, "trailking", profile.Username)

	resp, err = app.Test(signedClerkRequest(t, `{"type":"user.deleted","data":{"id":"user_2abc","deleted":true}}`, false), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var count int64
	svc.DB.Model(&models.UserProfile{}).Where("id = ?", "user_2abc").Count(&count)
	assert.Zero(t, count)
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	app, svc := newClerkApp(t)

	resp, err := app.Test(signedClerkRequest(t, clerkUserCreated, true), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	svc.DB.Model(&models.UserProfile{}).Count(&count)
	assert.Zero(t, count)
}

func TestClerkWebhookIgnoresOtherEvents(t *testing.T) {
	app, _ := newClerkApp(t)

	resp, err := app.Test(signedClerkRequest(t, `{"type":"session.created","data":{"id":"sess_1"}}`, false), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
