package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/http/middlewares"
	"github.com/moleboard/moleboard/internal/profile"
	"github.com/moleboard/moleboard/internal/session"
)

type ProfileSaver interface {
	Save(ctx context.Context, sess session.Session, req user.UpdateProfileRequest) (user.User, error)
}

type ProfileHandler struct {
	editor ProfileSaver
}

func NewProfileHandler(editor ProfileSaver) *ProfileHandler {
	return &ProfileHandler{editor: editor}
}

// Save applies a profile edit for the logged-in user. On success the
// session is already resynced, so a following GET /auth/me shows the new
// name/email without logging out.
func (h *ProfileHandler) Save(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	updated, err := h.editor.Save(ctx.Request.Context(), sess, req)

	if err != nil {
		switch {
		case errors.Is(err, profile.ErrUnauthenticated):
			RespondUnAuthorized(ctx, "unauthorized", "You must be logged in to edit your profile.")
		case errors.Is(err, profile.ErrPasswordMismatch):
			RespondBadRequest(ctx, "Passwords do not match.", nil)
		case errors.Is(err, user.ErrEmailConflict):
			RespondConflict(ctx, "email_conflict", "Email is already in use by another account.")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not save profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":    updated,
		"message": "Profile updated successfully!",
	})
}
