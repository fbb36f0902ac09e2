package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/authz"
	"github.com/tbourn/metrosite-backend/internal/domain"
)

const (
	// ctxKeyUserID is read by the rate limiter and the idempotency validator.
	ctxKeyUserID    = "userID"
	ctxKeyPrincipal = "principal"

	// HeaderAPIKey carries the shared key of the optional API gate.
	HeaderAPIKey = "X-API-Key"
)

// TokenParser verifies a bearer access token. *auth.Issuer implements it.
type TokenParser interface {
	Parse(token string, want auth.TokenType) (auth.Principal, error)
}

// Authenticate resolves "Authorization: Bearer <access token>" into an
// auth.Principal. Requests without the header pass through anonymously; a
// header that does not verify is rejected with 401 so clients know to refresh.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "malformed Authorization header")
			return
		}
		p, err := tokens.Parse(strings.TrimSpace(token), auth.TypeAccess)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(ctxKeyPrincipal, p)
		c.Set(ctxKeyUserID, p.Subject)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// RequirePrincipal aborts with 401 when the request is anonymous.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		c.Next()
	}
}

// Authorizer answers capability checks. *authz.Enforcer implements it.
type Authorizer interface {
	Can(role domain.Role, c authz.Capability) bool
}

// RequireCapability lets the request through only when the principal's role
// holds capability. Anonymous callers get 401, authenticated ones 403.
func RequireCapability(az Authorizer, capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !az.Can(p.Role, capability) {
			LoggerFrom(c).Warn().
				Str("subject", p.Subject).
				Str("role", string(p.Role)).
				Str("capability", capability.String()).
				Msg("capability denied")
			abortJSON(c, http.StatusForbidden, "forbidden", "missing capability "+capability.String())
			return
		}
		c.Next()
	}
}

// APIKey requires X-API-Key to equal key. An empty key disables the gate.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(HeaderAPIKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid API key")
			return
		}
		c.Next()
	}
}

// abortJSON writes the API error envelope and stops the chain.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
