package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testMiddleware() *Middleware {
	return NewMiddleware("test-secret", zap.NewNop().Sugar())
}

func sessionCookie(t *testing.T, m *Middleware, p entities.Principal) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, m.IssueSession(c, p))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func clientPrincipal() entities.Principal {
	return entities.Principal{
		ID: "recUser1", Name: "Ada", Email: "ada@example.com",
		ClientID: "recClientA", ClientName: "Acme Law", Role: entities.RoleClient,
	}
}

func adminPrincipal() entities.Principal {
	return entities.Principal{ID: "admin", Role: entities.RoleAdmin}
}

func guardRouter(m *Middleware) *gin.Engine {
	r := gin.New()
	r.Use(m.PageGuard())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	for _, path := range []string{"/", "/login", "/admin/login", "/dashboard", "/leads", "/settings", "/admin", "/api/health"} {
		r.GET(path, ok)
	}
	return r
}

func TestPageGuardRouting(t *testing.T) {
	m := testMiddleware()
	r := guardRouter(m)

	client := sessionCookie(t, m, clientPrincipal())
	admin := sessionCookie(t, m, adminPrincipal())

	tests := []struct {
		name         string
		path         string
		cookie       *http.Cookie
		wantStatus   int
		wantLocation string
	}{
		{"anonymous landing page", "/", nil, http.StatusOK, ""},
		{"anonymous login page", "/login", nil, http.StatusOK, ""},
		{"anonymous admin login page", "/admin/login", nil, http.StatusOK, ""},
		{"anonymous api passthrough", "/api/health", nil, http.StatusOK, ""},
		{"anonymous dashboard", "/dashboard", nil, http.StatusFound, "/login"},
		{"anonymous leads", "/leads", nil, http.StatusFound, "/login"},
		{"anonymous settings", "/settings", nil, http.StatusFound, "/login"},
		{"anonymous admin", "/admin", nil, http.StatusFound, "/admin/login"},
		{"client dashboard", "/dashboard", client, http.StatusOK, ""},
		{"client admin page", "/admin", client, http.StatusFound, "/dashboard"},
		{"admin overview", "/admin", admin, http.StatusOK, ""},
		{"admin on tenant page", "/dashboard", admin, http.StatusFound, "/admin"},
		{"client on login page", "/login", client, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
		})
	}
}

func TestPageGuardSkipsStaticAssets(t *testing.T) {
	m := testMiddleware()
	r := guardRouter(m)
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionRequired(t *testing.T) {
	m := testMiddleware()
	r := gin.New()
	r.GET("/api/me", m.SessionRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, PrincipalFromContext(c))
	})

	// No cookie.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(sessionCookie(t, m, clientPrincipal()))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recClientA")
}

func TestSessionRequiredRejectsForeignSignature(t *testing.T) {
	m := testMiddleware()
	r := gin.New()
	r.GET("/api/me", m.SessionRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": entities.RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: signed})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRequiredRejectsExpiredToken(t *testing.T) {
	m := testMiddleware()
	r := gin.New()
	r.GET("/api/me", m.SessionRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "recUser1",
		"role": entities.RoleClient,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: signed})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired(t *testing.T) {
	m := testMiddleware()
	r := gin.New()
	r.GET("/api/admin/clients", m.SessionRequired(), m.AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/clients", nil)
	req.AddCookie(sessionCookie(t, m, clientPrincipal()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/clients", nil)
	req.AddCookie(sessionCookie(t, m, adminPrincipal()))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClearSessionExpiresCookie(t *testing.T) {
	m := testMiddleware()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)

	m.ClearSession(c)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestRateLimitLogin(t *testing.T) {
	m := testMiddleware()
	r := gin.New()
	r.POST("/api/auth/login", m.RateLimitLogin(1, 3), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
