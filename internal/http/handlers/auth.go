package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/http/middlewares"
	"github.com/moleboard/moleboard/internal/observability"
	"github.com/moleboard/moleboard/internal/session"
)

type SessionManager interface {
	Login(ctx context.Context, email, password string) (session.Session, string, error)
	Logout(ctx context.Context, sessionID string) error
	FromToken(ctx context.Context, raw string) (session.Session, error)
}

type AuthHandler struct {
	sessions   SessionManager
	prom       *observability.Prom
	env        string
	sessionTTL time.Duration
}

func NewAuthHandler(sessions SessionManager, prom *observability.Prom, env string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		prom:       prom,
		env:        env,
		sessionTTL: sessionTTL,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	sess, token, err := h.sessions.Login(ctx.Request.Context(), req.Email, req.Password)

	if err != nil {
		h.countLogin("invalid")

		// the session carries the user-facing message the login form renders
		RespondUnAuthorized(ctx, "invalid_credentials", sess.LoginError)
		return
	}

	h.countLogin("ok")

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, gin.H{
		"user":         sess.User,
		"role":         sess.Role(),
		"sessionToken": token,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if ok {
		_ = h.sessions.Logout(ctx.Request.Context(), sess.ID)
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// Me returns the session's current view of the logged-in user. After a
// profile save this reflects the resynced record without a re-login.
func (h *AuthHandler) Me(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":        sess.User,
		"role":        sess.Role(),
		"userId":      sess.UserID(),
		"displayName": sess.DisplayName(),
	})
}

// Helper functions

func (h *AuthHandler) countLogin(result string) {
	if h.prom != nil {
		h.prom.LoginsTotal.WithLabelValues(result).Inc()
	}
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.env == "prod"

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		token,
		int(h.sessionTTL.Seconds()),
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
