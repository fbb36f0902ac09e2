package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VisitorCookie names the anonymous browser-session cookie.
const VisitorCookie = "sid"

const visitorCookieMaxAge = 365 * 24 * 60 * 60

// VisitorToucher records activity of a browser session.
type VisitorToucher interface {
	TouchVisitor(ctx context.Context, sessionID string) error
}

// VisitorSession issues a "sid" cookie when the request carries none (or one
// that is not a UUID) and records the session through t. Recording failures
// are logged and never fail the request.
func VisitorSession(t VisitorToucher, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(VisitorCookie)
		if err == nil {
			_, err = uuid.Parse(sid)
		}
		if err != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(VisitorCookie, sid, visitorCookieMaxAge, "/", "", secure, true)
		}
		if err := t.TouchVisitor(c.Request.Context(), sid); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("visitor not recorded")
		}
		c.Next()
	}
}
