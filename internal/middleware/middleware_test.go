package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, role string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := JWTClaims{
		UserID:   "user-001",
		FullName: "Test User",
		Email:    "test@interdeco.test",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/", JWTAuth(testSecret))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	admin := protected.Group("/admin", RequireRole("admin"))
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func do(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthValidToken(t *testing.T) {
	r := setupAuthRouter()
	w := do(r, "/me", "Bearer "+signToken(t, "seller", time.Hour))
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestJWTAuthMissingToken(t *testing.T) {
	r := setupAuthRouter()
	if w := do(r, "/me", ""); w.Code != 401 {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	r := setupAuthRouter()
	if w := do(r, "/me", "Bearer "+signToken(t, "seller", -time.Hour)); w.Code != 401 {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuthGarbageToken(t *testing.T) {
	r := setupAuthRouter()
	if w := do(r, "/me", "Bearer garbage"); w.Code != 401 {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// SSE connections cannot set headers, so the token query param is accepted.
func TestJWTAuthQueryFallback(t *testing.T) {
	r := setupAuthRouter()
	req, _ := http.NewRequest("GET", "/me?token="+signToken(t, "seller", time.Hour), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequireRoleBlocksSeller(t *testing.T) {
	r := setupAuthRouter()
	if w := do(r, "/admin/ping", "Bearer "+signToken(t, "seller", time.Hour)); w.Code != 403 {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequireRoleAdmitsAdmin(t *testing.T) {
	r := setupAuthRouter()
	if w := do(r, "/admin/ping", "Bearer "+signToken(t, "admin", time.Hour)); w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
