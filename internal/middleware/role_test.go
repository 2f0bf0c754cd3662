package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dinesight/internal/domain"
)

func roleRouter(minRole domain.Role, actual string, withIdentity bool) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if withIdentity {
			c.Set("role", actual)
		}
	})
	router.Use(RequireRole(minRole))
	router.GET("/gated", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireRole_Hierarchy(t *testing.T) {
	roles := []domain.Role{domain.RoleViewer, domain.RoleUser, domain.RoleManager, domain.RoleAdmin}

	for _, required := range roles {
		for _, actual := range roles {
			name := fmt.Sprintf("required=%s actual=%s", required, actual)
			t.Run(name, func(t *testing.T) {
				router := roleRouter(required, string(actual), true)

				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/gated", nil)
				router.ServeHTTP(w, req)

				if actual.Rank() >= required.Rank() {
					assert.Equal(t, http.StatusOK, w.Code)
				} else {
					assert.Equal(t, http.StatusForbidden, w.Code)
					assert.Contains(t, w.Body.String(), "FORBIDDEN")
				}
			})
		}
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	router := roleRouter(domain.RoleUser, "", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/gated", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireRole_UnknownRole(t *testing.T) {
	router := roleRouter(domain.RoleViewer, "superuser", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/gated", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnly(t *testing.T) {
	adminRouter := func(actual string) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) { c.Set("role", actual) })
		router.Use(AdminOnly())
		router.GET("/gated", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/gated", nil)
	adminRouter("admin").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/gated", nil)
	adminRouter("manager").ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
