package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/moleboard/moleboard/internal/auth"
	"github.com/moleboard/moleboard/internal/domain/user"
)

// LoginErrorMessage is what an end user sees on a failed login. It is
// deliberately the same for unknown email and wrong password.
const LoginErrorMessage = "Invalid email or password. Please try again."

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// Keep this small interface so tests can fake the directory easily.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, password string) (user.User, error)
}

// Manager owns login, logout and the resync of the session's cached user
// copy. The directory owns the canonical record; the manager only ever
// holds copies.
type Manager struct {
	users  CredentialChecker
	store  Store
	tokens *auth.Manager
	ttl    time.Duration
}

func NewManager(users CredentialChecker, store Store, tokens *auth.Manager, ttl time.Duration) *Manager {
	return &Manager{
		users:  users,
		store:  store,
		tokens: tokens,
		ttl:    ttl,
	}
}

// Login validates the credentials (email casing does not matter) and on
// success creates and persists a fresh session plus its signed token.
// On failure the returned session is unauthenticated and carries the
// user-facing LoginError; calling Login again is always safe.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, string, error) {
	u, err := m.users.CheckCredentials(ctx, email, password)

	if err != nil {
		return Session{LoginError: LoginErrorMessage}, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()

	sess := Session{
		ID:        uuid.NewString(),
		User:      &u,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	err = m.store.Save(ctx, sess)

	if err != nil {
		return Session{}, "", err
	}

	token, err := m.tokens.GenerateSessionToken(sess.ID, u.ID, u.Email, u.Role)

	if err != nil {
		return Session{}, "", err
	}

	return sess, token, nil
}

// Logout drops the session. Idempotent, a missing session is not an error.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	err := m.store.Delete(ctx, sessionID)

	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}

	return err
}

// FromToken verifies a signed session token and loads the live session
// behind it. A valid signature over a session that no longer exists
// (logged out, expired in the store) is still unauthenticated.
func (m *Manager) FromToken(ctx context.Context, raw string) (Session, error) {
	claims, err := m.tokens.VerifySessionToken(raw)

	if err != nil {
		return Session{}, ErrUnauthenticated
	}

	sess, err := m.store.Get(ctx, claims.JTI)

	if err != nil {
		return Session{}, ErrUnauthenticated
	}

	return sess, nil
}

// Resync replaces the session's cached user copy with the given record.
// The profile editor calls this after a directory update so the derived
// accessors stay current within the same session.
func (m *Manager) Resync(ctx context.Context, sessionID string, updated user.User) (Session, error) {
	sess, err := m.store.Get(ctx, sessionID)

	if err != nil {
		return Session{}, ErrUnauthenticated
	}

	sess.User = &updated

	err = m.store.Save(ctx, sess)

	if err != nil {
		return Session{}, err
	}

	return sess, nil
}
