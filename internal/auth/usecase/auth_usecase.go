package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"data-playground/internal/auth/config"
	"data-playground/internal/auth/domain/model"
	"data-playground/internal/auth/domain/repository"
	"data-playground/internal/shared/eventbus"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Repository-level sentinels. Adapters return these and the usecase maps them
// onto the shared error taxonomy.
var (
	ErrEmailTaken    = errors.New("email is already taken")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrUserNotFound  = sharedErrors.ErrUserNotFound
)

// EventUserRegistered is published after a user has been stored.
const EventUserRegistered = "user.registered"

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, string, error)
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest accepts either an email or a username as identifier
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// UserRegistered is the payload of EventUserRegistered
type UserRegistered struct {
	UserID string
	Email  string
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	tokenSvc repository.TokenService
	config   *config.Config
	events   eventbus.EventBusInterface
	validate *validator.Validate
	logger   logger.Logger
}

// NewAuthUsecase creates a new instance of AuthUsecase. events may be nil.
func NewAuthUsecase(
	repo repository.AuthRepository,
	tokenSvc repository.TokenService,
	cfg *config.Config,
	events eventbus.EventBusInterface,
	log logger.Logger,
) *AuthUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		config:   cfg,
		events:   events,
		validate: v,
		logger:   log.WithComponent("auth_usecase"),
	}
}

// validationErrors converts validator output into the shared field/message list
func validationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return sharedErrors.NewValidationError(err.Error())
	}
	ve := sharedErrors.NewValidationErrors()
	for _, fe := range fieldErrs {
		ve.Add(strings.ToLower(fe.Field()), describeTag(fe), nil)
	}
	return ve.ToAppError()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "username":
		return "must be 3-30 letters, digits or underscores"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user and returns it with a fresh access token
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := uc.validate.Struct(req); err != nil {
		return nil, "", validationErrors(err)
	}

	if existing, err := uc.repo.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", sharedErrors.NewConflictError("email is already registered")
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, "", sharedErrors.WrapError(err, "failed to check existing user")
	}
	if existing, err := uc.repo.GetUserByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, "", sharedErrors.NewConflictError("username is already taken")
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, "", sharedErrors.WrapError(err, "failed to check existing user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), uc.config.BcryptCost)
	if err != nil {
		return nil, "", sharedErrors.WrapError(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.repo.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, ErrEmailTaken) {
			return nil, "", sharedErrors.NewConflictError("email is already registered").WithCause(err)
		}
		if errors.Is(err, ErrUsernameTaken) {
			return nil, "", sharedErrors.NewConflictError("username is already taken").WithCause(err)
		}
		return nil, "", sharedErrors.WrapError(err, "failed to create user")
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", sharedErrors.WrapError(err, "failed to generate token")
	}

	if uc.events != nil {
		// Pending shares are linked by a subscriber; a failure there must not
		// fail the registration.
		if err := uc.events.Publish(ctx, eventbus.NewBasicEventWithSource(EventUserRegistered,
			UserRegistered{UserID: user.ID, Email: user.Email}, "auth")); err != nil {
			uc.logger.WithContext(ctx).Warnf("user.registered handlers failed for %s: %v", user.ID, err)
		}
	}

	uc.logger.WithContext(ctx).Infof("registered user %s", user.ID)
	return user.Sanitized(), token, nil
}

// Login authenticates a user by email or username
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.User, string, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := uc.validate.Struct(req); err != nil {
		return nil, "", validationErrors(err)
	}

	var (
		user *model.User
		err  error
	)
	if req.Email != "" {
		user, err = uc.repo.GetUserByEmail(ctx, req.Email)
	} else {
		user, err = uc.repo.GetUserByUsername(ctx, req.Username)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", sharedErrors.NewAuthenticationError("invalid credentials").WithCause(sharedErrors.ErrInvalidCredentials)
		}
		return nil, "", sharedErrors.WrapError(err, "failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", sharedErrors.NewAuthenticationError("invalid credentials").WithCause(sharedErrors.ErrInvalidCredentials)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", sharedErrors.WrapError(err, "failed to generate token")
	}

	return user.Sanitized(), token, nil
}

// ValidateToken validates a JWT string
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, sharedErrors.NewAuthenticationError("invalid token").WithCause(err)
	}
	return claims, nil
}

// GetUserFromToken validates a token and fetches the associated user
func (uc *AuthUsecase) GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := uc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	user, err := uc.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Token outlived its user.
			return nil, sharedErrors.NewAuthenticationError("user no longer exists").WithCause(err)
		}
		return nil, sharedErrors.WrapError(err, "failed to load user")
	}
	return user.Sanitized(), nil
}

// GetUserByID retrieves a user by ID
func (uc *AuthUsecase) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, sharedErrors.NewValidationError("user ID is required")
	}
	user, err := uc.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, sharedErrors.NewNotFoundError("user").WithCause(err)
		}
		return nil, sharedErrors.WrapError(err, "failed to load user")
	}
	return user.Sanitized(), nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (uc *AuthUsecase) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, sharedErrors.NewValidationError("email is required")
	}
	user, err := uc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, sharedErrors.NewNotFoundError("user").WithCause(err)
		}
		return nil, sharedErrors.WrapError(err, "failed to load user")
	}
	return user.Sanitized(), nil
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
