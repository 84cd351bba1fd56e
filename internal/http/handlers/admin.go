package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/domain/user"
)

type UserDirectory interface {
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, name, email, password, role string) (user.User, error)
}

type AdminHandler struct {
	users UserDirectory
}

func NewAdminHandler(users UserDirectory) *AdminHandler {
	return &AdminHandler{users: users}
}

// ListUsers is the admin dashboard load hook: every account, id ascending.
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	users, err := h.users.List(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": users,
		"count": len(users),
	})
}

func (h *AdminHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	created, err := h.users.Create(ctx.Request.Context(), req.Name, req.Email, req.Password, req.Role)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			RespondConflict(ctx, "email_taken", "User with email '"+req.Email+"' already exists.")
		case errors.Is(err, user.ErrMissingField):
			RespondBadRequest(ctx, "Please fill all fields.", nil)
		default:
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}
