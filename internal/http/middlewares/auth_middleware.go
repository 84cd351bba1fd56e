package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/session"
)

// SessionCookieName carries the signed session token between requests.
const SessionCookieName = "moleboard_session"

// Keep this small interface so tests can fake it easily.
type SessionVerifier interface {
	FromToken(ctx context.Context, raw string) (session.Session, error)
}

type AuthMiddleware struct {
	sessions SessionVerifier
}

func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireSession resolves the session token (cookie first, then a Bearer
// header for non-browser clients) into the live session and stashes it on
// the gin context. No token or a dead session aborts with 401.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)

		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing session token",
				},
			})
			return
		}

		sess, err := m.sessions.FromToken(c.Request.Context(), raw)

		if err != nil || !sess.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Invalid or expired session",
				},
			})
			return
		}

		// Stash useful bits of identity on the context
		c.Set(string(CtxSession), sess)
		c.Set(string(CtxUserID), sess.UserID())
		c.Set(string(CtxRole), sess.Role())

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	cookie, err := c.Cookie(SessionCookieName)

	if err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}

	return ""
}

// Optional helpers so handlers don’t need to know the magic keys.

func SessionFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(string(CtxSession))
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(string(CtxRole))
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
