package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthConfig configures Clerk session verification.
type AuthConfig struct {
	Keyfunc jwt.Keyfunc
	Issuer  string   // optional
	Methods []string // defaults to RS256
}

// NewClerkKeyfunc fetches and keeps refreshing the Clerk JWKS.
func NewClerkKeyfunc(ctx context.Context, jwksURL string) (jwt.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load clerk jwks: %w", err)
	}
	return k.Keyfunc, nil
}

// UserContextMiddleware verifies the Clerk session token from the
// Authorization header (or the __session cookie) and stores its subject as
// c.Locals("user_id").
func UserContextMiddleware(cfg AuthConfig) fiber.Handler {
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodRS256.Alg()}
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		if raw == "" {
			raw = c.Cookies("__session")
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, cfg.Keyfunc); err != nil {
			zap.L().Debug("[AUTH] rejected session token", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
		}
		if claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session has no subject"})
		}

		c.Locals("user_id", claims.Subject)
		return c.Next()
	}
}
