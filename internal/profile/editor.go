package profile

import (
	"context"
	"errors"

	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/repo/memory"
	"github.com/moleboard/moleboard/internal/session"
)

var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

type UserUpdater interface {
	Update(ctx context.Context, id int, patch memory.UpdatePatch) (user.User, error)
}

type SessionResyncer interface {
	Resync(ctx context.Context, sessionID string, updated user.User) (session.Session, error)
}

// Editor applies profile edits for the logged-in user and pushes the fresh
// record back into the session, so name/email/role shown elsewhere update
// without a re-login.
type Editor struct {
	users    UserUpdater
	sessions SessionResyncer
}

func NewEditor(users UserUpdater, sessions SessionResyncer) *Editor {
	return &Editor{
		users:    users,
		sessions: sessions,
	}
}

// Save validates the edit, updates the directory and resyncs the session.
// A failed validation leaves the directory record untouched.
func (e *Editor) Save(ctx context.Context, sess session.Session, req user.UpdateProfileRequest) (user.User, error) {
	if !sess.IsAuthenticated() {
		return user.User{}, ErrUnauthenticated
	}

	if req.Password != "" && req.Password != req.ConfirmPassword {
		return user.User{}, ErrPasswordMismatch
	}

	updated, err := e.users.Update(ctx, sess.UserID(), memory.UpdatePatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		return user.User{}, err
	}

	_, err = e.sessions.Resync(ctx, sess.ID, updated)

	if err != nil {
		return user.User{}, err
	}

	return updated, nil
}
