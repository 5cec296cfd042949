package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"data-playground/internal/auth/config"
	"data-playground/internal/auth/domain/model"
	"data-playground/internal/auth/domain/repository"
	"data-playground/internal/auth/testutil"
	"data-playground/internal/auth/usecase"
	"data-playground/internal/shared/eventbus"
	sharedErrors "data-playground/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// Mock repository
type mockAuthRepository struct {
	mock.Mock
}

func (m *mockAuthRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// Mock token service
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken(ctx context.Context, userID, email, username string) (string, error) {
	args := m.Called(ctx, userID, email, username)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Claims), args.Error(1)
}

type AuthUsecaseTestSuite struct {
	suite.Suite
	repo     *mockAuthRepository
	tokenSvc *mockTokenService
	bus      *eventbus.EventBus
	uc       *usecase.AuthUsecase
	ctx      context.Context
	fixtures *testutil.UserFixture
}

func (s *AuthUsecaseTestSuite) SetupTest() {
	s.repo = new(mockAuthRepository)
	s.tokenSvc = new(mockTokenService)
	s.bus = eventbus.NewEventBus(nil)
	cfg := &config.Config{
		JWTSecretKey:   "test-secret",
		JWTIssuer:      "test",
		AccessTokenTTL: time.Hour,
		BcryptCost:     bcrypt.MinCost,
	}
	s.uc = usecase.NewAuthUsecase(s.repo, s.tokenSvc, cfg, s.bus, nil)
	s.ctx = context.Background()
	s.fixtures = testutil.NewUserFixture()
}

func TestAuthUsecaseSuite(t *testing.T) {
	suite.Run(t, new(AuthUsecaseTestSuite))
}

func (s *AuthUsecaseTestSuite) TestRegister_Success() {
	var published []usecase.UserRegistered
	s.bus.Subscribe(usecase.EventUserRegistered, func(ctx context.Context, e eventbus.Event) error {
		published = append(published, e.Data().(usecase.UserRegistered))
		return nil
	})

	s.repo.On("GetUserByEmail", s.ctx, "bob@example.com").Return(nil, usecase.ErrUserNotFound)
	s.repo.On("GetUserByUsername", s.ctx, "bob_1").Return(nil, usecase.ErrUserNotFound)
	s.repo.On("CreateUser", s.ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "bob@example.com" && u.Username == "bob_1" && u.PasswordHash != "password123" && u.ID != ""
	})).Return(nil)
	s.tokenSvc.On("GenerateToken", s.ctx, mock.AnythingOfType("string"), "bob@example.com", "bob_1").Return("tok", nil)

	user, token, err := s.uc.Register(s.ctx, usecase.RegisterRequest{
		Username: " bob_1 ",
		Email:    "Bob@Example.com",
		Password: "password123",
	})

	s.Require().NoError(err)
	s.Equal("tok", token)
	s.Equal("bob@example.com", user.Email)
	s.Empty(user.PasswordHash)
	s.Require().Len(published, 1)
	s.Equal(user.ID, published[0].UserID)
	s.Equal("bob@example.com", published[0].Email)
	s.repo.AssertExpectations(s.T())
}

func (s *AuthUsecaseTestSuite) TestRegister_ValidationErrors() {
	_, _, err := s.uc.Register(s.ctx, usecase.RegisterRequest{
		Username: "a!",
		Email:    "not-an-email",
		Password: "short",
	})

	s.Require().Error(err)
	s.True(sharedErrors.IsValidation(err))
	var ve *sharedErrors.ValidationErrors
	s.Require().True(errors.As(err, &ve))
	s.ElementsMatch([]string{"username", "email", "password"}, ve.Fields())
	s.repo.AssertNotCalled(s.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (s *AuthUsecaseTestSuite) TestRegister_DuplicateEmail() {
	existing := s.fixtures.ValidUser()
	s.repo.On("GetUserByEmail", s.ctx, existing.Email).Return(existing, nil)

	_, _, err := s.uc.Register(s.ctx, usecase.RegisterRequest{
		Username: "someone",
		Email:    existing.Email,
		Password: "password123",
	})

	s.True(sharedErrors.IsConflict(err))
}

func (s *AuthUsecaseTestSuite) TestRegister_DuplicateUsername() {
	existing := s.fixtures.ValidUser()
	s.repo.On("GetUserByEmail", s.ctx, "new@example.com").Return(nil, usecase.ErrUserNotFound)
	s.repo.On("GetUserByUsername", s.ctx, existing.Username).Return(existing, nil)

	_, _, err := s.uc.Register(s.ctx, usecase.RegisterRequest{
		Username: existing.Username,
		Email:    "new@example.com",
		Password: "password123",
	})

	s.True(sharedErrors.IsConflict(err))
}

func (s *AuthUsecaseTestSuite) TestRegister_RaceOnCreate() {
	s.repo.On("GetUserByEmail", s.ctx, "bob@example.com").Return(nil, usecase.ErrUserNotFound)
	s.repo.On("GetUserByUsername", s.ctx, "bob").Return(nil, usecase.ErrUserNotFound)
	s.repo.On("CreateUser", s.ctx, mock.Anything).Return(usecase.ErrEmailTaken)

	_, _, err := s.uc.Register(s.ctx, usecase.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password123"})

	s.True(sharedErrors.IsConflict(err))
	s.ErrorIs(err, usecase.ErrEmailTaken)
}

func (s *AuthUsecaseTestSuite) TestLogin_ByEmailAndUsername() {
	user := s.fixtures.ValidUser()
	s.repo.On("GetUserByEmail", s.ctx, user.Email).Return(user, nil)
	s.repo.On("GetUserByUsername", s.ctx, user.Username).Return(user, nil)
	s.tokenSvc.On("GenerateToken", s.ctx, user.ID, user.Email, user.Username).Return("tok", nil)

	got, token, err := s.uc.Login(s.ctx, usecase.LoginRequest{Email: "ALICE@example.com", Password: testutil.DefaultPassword})
	s.Require().NoError(err)
	s.Equal("tok", token)
	s.Equal(user.ID, got.ID)
	s.Empty(got.PasswordHash)

	_, token, err = s.uc.Login(s.ctx, usecase.LoginRequest{Username: user.Username, Password: testutil.DefaultPassword})
	s.Require().NoError(err)
	s.Equal("tok", token)
}

func (s *AuthUsecaseTestSuite) TestLogin_InvalidCredentials() {
	user := s.fixtures.ValidUser()
	s.repo.On("GetUserByEmail", s.ctx, user.Email).Return(user, nil)
	s.repo.On("GetUserByEmail", s.ctx, "ghost@example.com").Return(nil, usecase.ErrUserNotFound)

	_, _, err := s.uc.Login(s.ctx, usecase.LoginRequest{Email: user.Email, Password: "wrong-password"})
	s.True(sharedErrors.IsAuthentication(err))
	s.ErrorIs(err, sharedErrors.ErrInvalidCredentials)

	_, _, err = s.uc.Login(s.ctx, usecase.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	s.True(sharedErrors.IsAuthentication(err))
}

func (s *AuthUsecaseTestSuite) TestLogin_MissingIdentifier() {
	_, _, err := s.uc.Login(s.ctx, usecase.LoginRequest{Password: "x"})
	s.True(sharedErrors.IsValidation(err))
}

func (s *AuthUsecaseTestSuite) TestGetUserFromToken() {
	user := s.fixtures.ValidUser()
	s.tokenSvc.On("ValidateToken", s.ctx, "good").Return(&repository.Claims{UserID: user.ID}, nil)
	s.tokenSvc.On("ValidateToken", s.ctx, "bad").Return(nil, errors.New("token is invalid"))
	s.repo.On("GetUserByID", s.ctx, user.ID).Return(user, nil)

	got, err := s.uc.GetUserFromToken(s.ctx, "good")
	s.Require().NoError(err)
	s.Equal(user.Email, got.Email)

	_, err = s.uc.GetUserFromToken(s.ctx, "bad")
	s.True(sharedErrors.IsAuthentication(err))
}

func (s *AuthUsecaseTestSuite) TestGetUserByEmail_NotFound() {
	s.repo.On("GetUserByEmail", s.ctx, "nobody@example.com").Return(nil, usecase.ErrUserNotFound)

	_, err := s.uc.GetUserByEmail(s.ctx, " Nobody@Example.com ")
	s.True(sharedErrors.IsNotFound(err))
}

func TestRegister_PublishFailureDoesNotFailRegistration(t *testing.T) {
	repo := new(mockAuthRepository)
	tokens := new(mockTokenService)
	bus := eventbus.NewEventBusWithConfig(nil, eventbus.BusConfig{MaxRetries: 0})
	bus.Subscribe(usecase.EventUserRegistered, func(ctx context.Context, e eventbus.Event) error {
		return errors.New("mongo down")
	})
	uc := usecase.NewAuthUsecase(repo, tokens, &config.Config{BcryptCost: bcrypt.MinCost}, bus, nil)

	ctx := context.Background()
	repo.On("GetUserByEmail", ctx, "c@example.com").Return(nil, usecase.ErrUserNotFound)
	repo.On("GetUserByUsername", ctx, "carol").Return(nil, usecase.ErrUserNotFound)
	repo.On("CreateUser", ctx, mock.Anything).Return(nil)
	tokens.On("GenerateToken", ctx, mock.Anything, "c@example.com", "carol").Return("tok", nil)

	user, token, err := uc.Register(ctx, usecase.RegisterRequest{Username: "carol", Email: "c@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "carol", user.Username)
}
