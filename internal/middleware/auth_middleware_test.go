package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/jwt"
)

const testSecret = "test-access-secret-key-123456789"

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(testSecret, time.Hour)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func workerIdentity() jwt.Identity {
	staffID, outletID := uuid.New(), uuid.New()
	return jwt.Identity{UserID: uuid.New(), OutletStaffID: &staffID, OutletID: &outletID, Role: string(models.RoleWorker)}
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	id := workerIdentity()
	token, err := jwtService.GenerateAccessToken(id)
	require.NoError(t, err)

	router.GET("/protected", AuthMiddleware(jwtService, quietLogger()), func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		require.True(t, exists)
		assert.Equal(t, id.UserID, userCtx.UserID)
		assert.Equal(t, *id.OutletStaffID, *userCtx.OutletStaffID)
		assert.Equal(t, models.RoleWorker, userCtx.Role)
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, quietLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	expired, err := jwt.NewService(testSecret, -time.Minute).GenerateAccessToken(workerIdentity())
	require.NoError(t, err)
	foreign, err := jwt.NewService("wrong-secret-key", time.Hour).GenerateAccessToken(workerIdentity())
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"Missing header", "", "MISSING_AUTH_HEADER"},
		{"Missing Bearer", "some-token", "INVALID_AUTH_FORMAT"},
		{"Wrong prefix", "Basic some-token", "INVALID_AUTH_FORMAT"},
		{"Empty Bearer", "Bearer ", "INVALID_AUTH_FORMAT"},
		{"No token", "Bearer", "INVALID_AUTH_FORMAT"},
		{"Malformed token", "Bearer invalid.token.here", "INVALID_TOKEN"},
		{"Wrong secret", "Bearer " + foreign, "INVALID_TOKEN"},
		{"Expired", "Bearer " + expired, "TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Context exists", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expected := UserContext{UserID: uuid.New(), Role: models.RoleOutletAdmin}
		c.Set(UserContextKey, expected)

		userCtx, exists := GetUserContext(c)
		assert.True(t, exists)
		assert.Equal(t, expected, userCtx)
	})

	t.Run("Context not found", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		userCtx, exists := GetUserContext(c)
		assert.False(t, exists)
		assert.Equal(t, UserContext{}, userCtx)
	})

	t.Run("Context wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(UserContextKey, "wrong type")
		_, exists := GetUserContext(c)
		assert.False(t, exists)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		userCtx    *UserContext
		wantStatus int
	}{
		{"Outlet admin allowed", &UserContext{UserID: uuid.New(), Role: models.RoleOutletAdmin}, http.StatusOK},
		{"Super admin allowed", &UserContext{UserID: uuid.New(), Role: models.RoleSuperAdmin}, http.StatusOK},
		{"Worker rejected", &UserContext{UserID: uuid.New(), Role: models.RoleWorker}, http.StatusForbidden},
		{"No user context", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/admin", func(c *gin.Context) {
				if tt.userCtx != nil {
					c.Set(UserContextKey, *tt.userCtx)
				}
				c.Next()
			}, RequireRole(models.RoleSuperAdmin, models.RoleOutletAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
