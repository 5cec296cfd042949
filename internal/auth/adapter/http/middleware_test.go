package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authhttp "data-playground/internal/auth/adapter/http"
	"data-playground/internal/auth/domain/model"
	"data-playground/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MiddlewareTestSuite struct {
	suite.Suite
	app        *fiber.App
	mockUC     *mockAuthUsecase
	middleware *authhttp.AuthMiddleware
}

func (suite *MiddlewareTestSuite) SetupTest() {
	suite.mockUC = &mockAuthUsecase{}
	suite.middleware = authhttp.NewAuthMiddleware(suite.mockUC)
	suite.app = fiber.New()
	suite.app.Use(authhttp.RequestID(), authhttp.RequestContext())
	suite.app.Get("/protected", suite.middleware.Protect(), func(c *fiber.Ctx) error {
		p, err := utils.GetPrincipalFromContext(c.UserContext())
		if err != nil {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"user_id":    p.UserID,
			"email":      p.Email,
			"username":   p.Username,
			"request_id": utils.GetRequestIDOrDefault(c.UserContext(), ""),
		})
	})
}

func (suite *MiddlewareTestSuite) TestProtect_BearerToken() {
	user := &model.User{ID: "user-123", Email: "test@example.com", Username: "tester"}
	suite.mockUC.On("GetUserFromToken", mock.Anything, "valid-token").Return(user, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	resp, err := suite.app.Test(req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	body := decode(suite.T(), resp)
	assert.Equal(suite.T(), "user-123", body["user_id"])
	assert.Equal(suite.T(), "tester", body["username"])
	assert.NotEmpty(suite.T(), body["request_id"])
	assert.NotEmpty(suite.T(), resp.Header.Get(fiber.HeaderXRequestID))
}

func (suite *MiddlewareTestSuite) TestProtect_QueryToken() {
	user := &model.User{ID: "user-123", Email: "test@example.com"}
	suite.mockUC.On("GetUserFromToken", mock.Anything, "ws-token").Return(user, nil)

	resp, err := suite.app.Test(httptest.NewRequest(http.MethodGet, "/protected?token=ws-token", nil))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func (suite *MiddlewareTestSuite) TestProtect_NoToken() {
	resp, err := suite.app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(suite.T(), false, decode(suite.T(), resp)["success"])
	suite.mockUC.AssertNotCalled(suite.T(), "GetUserFromToken", mock.Anything, mock.Anything)
}

func (suite *MiddlewareTestSuite) TestProtect_InvalidToken() {
	suite.mockUC.On("GetUserFromToken", mock.Anything, "bad").Return(nil, errors.New("token is invalid"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	resp, err := suite.app.Test(req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}
