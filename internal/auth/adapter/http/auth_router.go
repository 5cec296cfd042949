package http

import (
	"time"

	"data-playground/internal/auth/domain/model"
	"data-playground/internal/auth/usecase"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/logger"
	"data-playground/internal/shared/response"
	"data-playground/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	log     logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, log logger.Logger) *AuthHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthHTTPHandler{usecase: uc, log: log.WithComponent("auth_http")}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	public := router.Group("/", middleware.RateLimiter(20, time.Minute))
	public.Post("/register", h.Register)
	public.Post("/login", h.Login)

	router.Get("/me", middleware.Protect(), h.GetCurrentUser)
}

func authPayload(user *model.User, token string) fiber.Map {
	return fiber.Map{
		"user":  user,
		"token": token,
	}
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, h.log, sharedErrors.NewValidationError("invalid request body"))
	}

	user, token, err := h.usecase.Register(c.UserContext(), req)
	if err != nil {
		return response.Error(c, h.log, err)
	}

	return response.Created(c, authPayload(user, token))
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, h.log, sharedErrors.NewValidationError("invalid request body"))
	}

	user, token, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return response.Error(c, h.log, err)
	}

	return response.OK(c, authPayload(user, token))
}

// GetCurrentUser returns current user information
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.usecase.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return response.Error(c, h.log, err)
	}

	return response.OK(c, fiber.Map{"user": user})
}
