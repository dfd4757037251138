package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionCookie holds the signed session descriptor.
const SessionCookie = "session"

const sessionTTL = 24 * time.Hour

type Middleware struct {
	jwtSecret     []byte
	loginLimiters map[string]*rate.Limiter
	mu            sync.Mutex
	log           *zap.SugaredLogger
}

func NewMiddleware(secret string, log *zap.SugaredLogger) *Middleware {
	return &Middleware{
		jwtSecret:     []byte(secret),
		loginLimiters: make(map[string]*rate.Limiter),
		log:           log,
	}
}

// IssueSession signs a session token for the principal and sets it as an
// HttpOnly cookie.
func (m *Middleware) IssueSession(c *gin.Context, p entities.Principal) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        p.ID,
		"name":       p.Name,
		"email":      p.Email,
		"clientId":   p.ClientID,
		"clientName": p.ClientName,
		"role":       p.Role,
		"exp":        time.Now().Add(sessionTTL).Unix(),
	})
	signed, err := token.SignedString(m.jwtSecret)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, signed, int(sessionTTL.Seconds()), "/", "", false, true)
	return nil
}

func (m *Middleware) ClearSession(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// principalFrom parses and verifies the session cookie. Nil means
// unauthenticated; expired or tampered tokens count as no session.
func (m *Middleware) principalFrom(c *gin.Context) *entities.Principal {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	p := entities.Principal{
		ID:         claimString(claims, "sub"),
		Name:       claimString(claims, "name"),
		Email:      claimString(claims, "email"),
		ClientID:   claimString(claims, "clientId"),
		ClientName: claimString(claims, "clientName"),
		Role:       claimString(claims, "role"),
	}
	if p.Role == "" {
		p.Role = entities.RoleClient
	}
	return &p
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// publicPath reports whether the guard skips a path entirely: the landing
// page, both login pages, the API namespace (it does its own auth), and
// static assets.
func publicPath(path string) bool {
	return path == "/" ||
		strings.HasPrefix(path, "/login") ||
		strings.HasPrefix(path, "/admin/login") ||
		strings.HasPrefix(path, "/api") ||
		strings.Contains(path, ".")
}

func tenantPath(path string) bool {
	return strings.HasPrefix(path, "/dashboard") ||
		strings.HasPrefix(path, "/leads") ||
		strings.HasPrefix(path, "/settings")
}

// PageGuard routes page requests by session state. It is a pure routing
// decision: the only outcomes are pass-through or a redirect, and it never
// touches session state.
func (m *Middleware) PageGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if publicPath(path) {
			c.Next()
			return
		}

		p := m.principalFrom(c)
		if p == nil {
			switch {
			case strings.HasPrefix(path, "/admin"):
				c.Redirect(http.StatusFound, "/admin/login")
				c.Abort()
			case tenantPath(path):
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
			default:
				c.Next()
			}
			return
		}

		// Wrong-role access silently re-routes to the home surface for the
		// role; it is not an error.
		if strings.HasPrefix(path, "/admin") && p.Role != entities.RoleAdmin {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		if tenantPath(path) && p.Role == entities.RoleAdmin {
			c.Redirect(http.StatusFound, "/admin")
			c.Abort()
			return
		}

		c.Set("principal", *p)
		c.Next()
	}
}

// SessionRequired guards API endpoints: no valid session means 401.
func (m *Middleware) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := m.principalFrom(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("principal", *p)
		c.Next()
	}
}

// AdminRequired must follow SessionRequired.
func (m *Middleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFromContext(c)
		if !p.SeesAllTenants() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns the principal set by the guards. Zero value
// when called outside a guarded route.
func PrincipalFromContext(c *gin.Context) entities.Principal {
	if v, exists := c.Get("principal"); exists {
		if p, ok := v.(entities.Principal); ok {
			return p
		}
	}
	return entities.Principal{}
}

// RateLimitLogin limits credential attempts per client IP.
func (m *Middleware) RateLimitLogin(r rate.Limit, b int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		m.mu.Lock()
		limiter, exists := m.loginLimiters[key]
		if !exists {
			limiter = rate.NewLimiter(r, b)
			m.loginLimiters[key] = limiter
		}
		m.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts"})
			return
		}
		c.Next()
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequestSizeLimiter limits request body size to prevent DoS
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
