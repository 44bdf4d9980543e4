package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"clearbooks/internal/domain"
	"clearbooks/internal/middleware"
	"clearbooks/internal/service"
	"clearbooks/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)

	orgID := uuid.New()
	userID := uuid.New()
	claims := &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{},
		OrganizationID:   orgID,
		UserID:           userID,
		Email:            "user@test.com",
		Role:             domain.RoleReviewer,
	}

	mockAuth.On("ValidateToken", "valid-token").Return(claims, nil)

	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) {
		oid, _ := middleware.GetOrgID(c)
		uid, _ := middleware.GetUserID(c)
		role := middleware.GetRole(c)
		c.JSON(http.StatusOK, gin.H{
			"organization_id": oid,
			"user_id":         uid,
			"role":            role,
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer valid-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, orgID.String(), resp["organization_id"])
	assert.Equal(t, userID.String(), resp["user_id"])
	assert.Equal(t, "reviewer", resp["role"])
	mockAuth.AssertExpectations(t)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)

	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockAuth.AssertNotCalled(t, "ValidateToken")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	mockAuth.On("ValidateToken", "expired-token").Return(nil, errors.New("token is expired"))

	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer expired-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)

	r := gin.New()
	r.Use(middleware.AuthMiddleware(mockAuth))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockAuth.AssertNotCalled(t, "ValidateToken")
}

func requireRoleRouter(role domain.UserRole, allowed ...domain.UserRole) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyRole, string(role))
	})
	r.Use(middleware.RequireRole(allowed...))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     domain.UserRole
		allowed  []domain.UserRole
		expected int
	}{
		{"admin allowed", domain.RoleAdmin, []domain.UserRole{domain.RoleAdmin, domain.RoleReviewer}, http.StatusOK},
		{"reviewer allowed", domain.RoleReviewer, []domain.UserRole{domain.RoleAdmin, domain.RoleReviewer}, http.StatusOK},
		{"member forbidden", domain.RoleMember, []domain.UserRole{domain.RoleAdmin, domain.RoleReviewer}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := requireRoleRouter(tt.role, tt.allowed...)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequireRole_NoRoleInContext(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequireRole(domain.RoleAdmin))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
