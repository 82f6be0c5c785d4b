package middleware_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/tests/testutils"
)

func setupAuthRouter() *gin.Engine {
	router := testutils.SetupTestRouter()
	router.Use(middleware.NewAuthMiddleware().Authenticate())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": middleware.GetToken(c)})
	})
	return router
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	router := setupAuthRouter()

	w := testutils.PerformRequest(router, "GET", "/protected", nil, nil)

	testutils.AssertStatusCode(t, http.StatusUnauthorized, w)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	router := setupAuthRouter()

	w := testutils.PerformRequest(router, "GET", "/protected", nil, map[string]string{
		"Authorization": "Basic dXNlcjpwYXNz",
	})

	testutils.AssertStatusCode(t, http.StatusUnauthorized, w)
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	router := setupAuthRouter()

	w := testutils.PerformRequest(router, "GET", "/protected", nil, map[string]string{
		"Authorization": "Bearer ",
	})

	testutils.AssertStatusCode(t, http.StatusUnauthorized, w)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	router := setupAuthRouter()

	w := testutils.PerformRequest(router, "GET", "/protected", nil, map[string]string{
		"Authorization": "Bearer learner-token",
	})

	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response map[string]string
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, "learner-token", response["token"])
}
