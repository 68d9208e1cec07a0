package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, *auth.Manager) {
	t.Helper()
	m, err := auth.NewManager(config.JWTConfig{Secret: "test"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	r := gin.New()
	r.GET("/me", Authenticate(m), Authorize(models.RoleDriver, models.RoleAdmin), func(c *gin.Context) {
		a := Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": a.ID, "role": a.Role})
	})
	return r, m
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	r, m := newRouter(t)
	driverTok, _ := m.GenerateJWT("drv-1", models.RoleDriver, "")
	residentTok, _ := m.GenerateJWT("res-1", models.RoleResident, "")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", driverTok, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + residentTok, http.StatusForbidden},
		{"allowed", "Bearer " + driverTok, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
