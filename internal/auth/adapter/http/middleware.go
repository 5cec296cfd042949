package http

import (
	"strings"
	"time"

	"data-playground/internal/auth/usecase"
	"data-playground/internal/shared/contextkeys"
	"data-playground/internal/shared/response"
	"data-playground/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase usecase.AuthUsecaseInterface
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface) *AuthMiddleware {
	return &AuthMiddleware{usecase: uc}
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter creates rate limiting middleware for auth endpoints
func (m *AuthMiddleware) RateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return fiberutils.CopyString(c.Get("X-Forwarded-For", c.IP()))
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, please try again later")
		},
	})
}

// RequestID assigns a correlation ID and copies it into the user context
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: string(contextkeys.RequestIDKey),
		Generator:  uuid.NewString,
	})
}

// RequestContext copies the request ID local into the user context so
// loggers pick it up. Must run after RequestID.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), fiberutils.CopyString(id)))
		}
		return c.Next()
	}
}

// Protect returns middleware that requires authentication. The resolved
// user is attached to the request context as the principal.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := extractToken(c)
		if !ok {
			return response.Fail(c, fiber.StatusUnauthorized, "authentication required")
		}

		user, err := m.usecase.GetUserFromToken(c.UserContext(), token)
		if err != nil {
			return response.Fail(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.SetUserContext(utils.WithPrincipal(c.UserContext(), utils.Principal{
			UserID:   user.ID,
			Email:    user.Email,
			Username: user.Username,
		}))
		return c.Next()
	}
}

// extractToken reads the bearer token, falling back to the token query
// parameter used by websocket clients
func extractToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token, true
		}
	}

	if token := c.Query("token"); token != "" {
		return token, true
	}

	return "", false
}
