package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTokenMiddleware(t *testing.T) {
	newApp := func(token string) *fiber.App {
		app := fiber.New()
		app.Post("/internal/refresh-views", ServiceTokenMiddleware(token), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}

	cases := []struct {
		name     string
		expected string
		header   string
		value    string
		status   int
	}{
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", fiber.StatusOK},
		{"raw", "s3cret", "Authorization", "s3cret", fiber.StatusOK},
		{"x-service-token", "s3cret", "X-Service-Token", "s3cret", fiber.StatusOK},
		{"wrong", "s3cret", "Authorization", "Bearer nope", fiber.StatusUnauthorized},
		{"missing", "s3cret", "", "", fiber.StatusUnauthorized},
		{"unconfigured", "", "Authorization", "Bearer ", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/refresh-views", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp, err := newApp(tc.expected).Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
