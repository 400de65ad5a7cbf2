package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/pkg/jwt"
)

func TestJWTAuth_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/search", nil)

	JWTAuth([]byte("secret"))(c)
	require.True(t, c.IsAborted())
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/search", nil)
	c.Request.Header.Set("Authorization", "Token abc")

	JWTAuth([]byte("secret"))(c)
	require.True(t, c.IsAborted())
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := jwt.GenerateToken("user-1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/search", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)

	JWTAuth([]byte("secret"))(c)
	require.True(t, c.IsAborted())
}

func TestJWTAuth_ValidTokenSetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("secret")
	token, err := jwt.GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/search", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)

	JWTAuth(secret)(c)
	require.False(t, c.IsAborted())
	value, ok := c.Get(ContextUserIDKey)
	require.True(t, ok)
	require.Equal(t, "user-1", value)
}
