package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

const testUserHeader = "X-Test-User"

// fakeAuth trusts X-Test-User in place of a Clerk session.
func fakeAuth(c *fiber.Ctx) error {
	if id := c.Get(testUserHeader); id != "" {
		c.Locals("user_id", id)
	}
	return c.Next()
}

func newTestApp(register func(app *fiber.App)) *fiber.App {
	app := fiber.New()
	app.Use(fakeAuth)
	register(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, userID string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedUser(t *testing.T, db *gorm.DB, id string, role models.UserRole, wallet float64) *models.UserProfile {
	t.Helper()
	u := &models.UserProfile{ID: id, Email: id + "@example.com", Username: id, WalletBalance: wallet}
	if role != "" {
		u.Role = &role
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedBounty(t *testing.T, db *gorm.DB, ownerID string, total, rate float64) *models.Bounty {
	t.Helper()
	id := uuid.NewString()
	b := &models.Bounty{
		ID:             id,
		Name:           "Summer sneaker launch",
		Slug:           "summer-sneaker-launch-" + id[:8],
		Description:    "Show our new running sneakers on a trail run",
		TotalBounty:    total,
		RatePer1kViews: rate,
		CreatorID:      ownerID,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func seedSubmission(t *testing.T, db *gorm.DB, bountyID, userID string, status models.SubmissionStatus, views int64) *models.Submission {
	t.Helper()
	s := &models.Submission{
		ID:        uuid.NewString(),
		BountyID:  bountyID,
		UserID:    userID,
		VideoURL:  fmt.Sprintf("https://www.youtube.com/watch?v=%s", uuid.NewString()[:11]),
		Status:    status,
		ViewCount: views,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

type fakeValidator struct {
	mu     sync.Mutex
	result ValidationResult
	err    error
	calls  int
}

func (f *fakeValidator) Validate(_ context.Context, _ *models.Bounty, _ string, _ LinkMetadata) (ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

type fakeMetadata struct {
	meta LinkMetadata
	err  error
}

func (f *fakeMetadata) Fetch(_ context.Context, _ string, ref PostRef) (LinkMetadata, error) {
	m := f.meta
	m.Platform = ref.Platform
	return m, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}
