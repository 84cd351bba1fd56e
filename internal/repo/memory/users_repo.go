package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/security"
)

// UsersRepo is the user directory. It is shared mutable state across every
// session, so all access goes through the lock. IDs are small integers
// assigned as max existing id + 1 (1 when the directory is empty).
type UsersRepo struct {
	mu    sync.RWMutex
	users []user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{}
}

// UpdatePatch carries a profile mutation. Name and Email are always applied,
// Password only when non-empty.
type UpdatePatch struct {
	Name     string
	Email    string
	Password string
}

// SeedDemoUsers installs the three demo accounts the dashboard ships with.
// Their plaintext password is "password"; it is bcrypt-hashed on the way in.
func (r *UsersRepo) SeedDemoUsers(ctx context.Context) error {
	seeds := []struct {
		email string
		name  string
		role  string
	}{
		{"patient@example.com", "John Patient", user.RolePatient},
		{"doctor@example.com", "Dr. Ada Heals", user.RoleDoctor},
		{"admin@example.com", "Eva Admin", user.RoleAdmin},
	}

	for _, s := range seeds {
		_, err := r.Create(ctx, s.name, s.email, "password", s.role)

		if err != nil {
			return err
		}
	}

	return nil
}

// GetByEmail matches case-insensitively.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	needle := strings.ToLower(strings.TrimSpace(email))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.ToLower(u.Email) == needle {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id int) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Create(ctx context.Context, name, email, password, role string) (user.User, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return user.User{}, user.ErrMissingField
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return user.User{}, err
	}

	needle := strings.ToLower(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	nextID := 1

	for _, u := range r.users {
		if strings.ToLower(u.Email) == needle {
			return user.User{}, user.ErrDuplicateEmail
		}

		if u.ID >= nextID {
			nextID = u.ID + 1
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           nextID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.users = append(r.users, u)

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id int, patch UpdatePatch) (user.User, error) {
	needle := strings.ToLower(patch.Email)

	// hash outside the lock, bcrypt is not cheap
	hash := ""

	if patch.Password != "" {
		var err error

		hash, err = security.HashPassword(patch.Password)

		if err != nil {
			return user.User{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID != id && strings.ToLower(u.Email) == needle {
			return user.User{}, user.ErrEmailConflict
		}
	}

	for i := range r.users {
		if r.users[i].ID != id {
			continue
		}

		r.users[i].Name = patch.Name
		r.users[i].Email = patch.Email

		if hash != "" {
			r.users[i].PasswordHash = hash
		}

		r.users[i].UpdatedAt = time.Now().UTC()

		return r.users[i], nil
	}

	return user.User{}, user.ErrNotFound
}

// List returns a copy sorted by id ascending.
func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()

	out := make([]user.User, len(r.users))
	copy(out, r.users)

	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// CheckCredentials looks the account up by email (any casing) and verifies
// the password against the stored bcrypt hash.
func (r *UsersRepo) CheckCredentials(ctx context.Context, email, password string) (user.User, error) {
	u, err := r.GetByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	err = security.CheckPassword(u.PasswordHash, password)

	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}
