package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/repo/memory"
	"github.com/moleboard/moleboard/internal/security"
	"github.com/moleboard/moleboard/internal/session"
)

type fakeResyncer struct {
	calls     int
	sessionID string
	updated   user.User
	err       error
}

func (f *fakeResyncer) Resync(ctx context.Context, sessionID string, updated user.User) (session.Session, error) {
	f.calls++
	f.sessionID = sessionID
	f.updated = updated

	if f.err != nil {
		return session.Session{}, f.err
	}

	return session.Session{ID: sessionID, User: &updated}, nil
}

func loggedInAs(u user.User) session.Session {
	return session.Session{
		ID:        "sess-1",
		User:      &u,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func seededUsers(t *testing.T) *memory.UsersRepo {
	t.Helper()

	users := memory.NewUsersRepo()

	if err := users.SeedDemoUsers(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return users
}

func TestSaveUpdatesDirectoryAndSession(t *testing.T) {
	users := seededUsers(t)
	resync := &fakeResyncer{}
	e := NewEditor(users, resync)

	patient, err := users.GetByEmail(context.Background(), "patient@example.com")

	if err != nil {
		t.Fatalf("seed lookup: %v", err)
	}

	updated, err := e.Save(context.Background(), loggedInAs(patient), user.UpdateProfileRequest{
		Name:  "John Renamed",
		Email: "john.new@example.com",
	})

	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if updated.Name != "John Renamed" || updated.Email != "john.new@example.com" {
		t.Errorf("updated = %q/%q", updated.Name, updated.Email)
	}

	if resync.calls != 1 || resync.sessionID != "sess-1" {
		t.Errorf("resync calls = %d, session = %q", resync.calls, resync.sessionID)
	}

	if resync.updated.Email != "john.new@example.com" {
		t.Errorf("resynced email = %q", resync.updated.Email)
	}

	// directory record actually changed
	fresh, err := users.GetByID(context.Background(), patient.ID)

	if err != nil {
		t.Fatalf("get by id: %v", err)
	}

	if fresh.Email != "john.new@example.com" {
		t.Errorf("directory email = %q", fresh.Email)
	}
}

func TestSavePasswordChange(t *testing.T) {
	users := seededUsers(t)
	resync := &fakeResyncer{}
	e := NewEditor(users, resync)

	patient, _ := users.GetByEmail(context.Background(), "patient@example.com")

	updated, err := e.Save(context.Background(), loggedInAs(patient), user.UpdateProfileRequest{
		Name:            patient.Name,
		Email:           patient.Email,
		Password:        "newsecret",
		ConfirmPassword: "newsecret",
	})

	if err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh, _ := users.GetByID(context.Background(), updated.ID)

	if err := security.CheckPassword(fresh.PasswordHash, "newsecret"); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}

	if err := security.CheckPassword(fresh.PasswordHash, "password"); err == nil {
		t.Error("old password still verifies")
	}
}

func TestSavePasswordMismatchLeavesDirectoryUnchanged(t *testing.T) {
	users := seededUsers(t)
	resync := &fakeResyncer{}
	e := NewEditor(users, resync)

	patient, _ := users.GetByEmail(context.Background(), "patient@example.com")

	_, err := e.Save(context.Background(), loggedInAs(patient), user.UpdateProfileRequest{
		Name:            "Should Not Apply",
		Email:           patient.Email,
		Password:        "one",
		ConfirmPassword: "two",
	})

	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("err = %v, want ErrPasswordMismatch", err)
	}

	if resync.calls != 0 {
		t.Error("resync ran after a rejected edit")
	}

	fresh, _ := users.GetByID(context.Background(), patient.ID)

	if fresh.Name != "John Patient" {
		t.Errorf("name changed to %q after rejected edit", fresh.Name)
	}
}

func TestSaveEmailConflict(t *testing.T) {
	users := seededUsers(t)
	resync := &fakeResyncer{}
	e := NewEditor(users, resync)

	patient, _ := users.GetByEmail(context.Background(), "patient@example.com")

	_, err := e.Save(context.Background(), loggedInAs(patient), user.UpdateProfileRequest{
		Name:  patient.Name,
		Email: "doctor@example.com",
	})

	if !errors.Is(err, user.ErrEmailConflict) {
		t.Fatalf("err = %v, want ErrEmailConflict", err)
	}

	if resync.calls != 0 {
		t.Error("resync ran after a failed update")
	}
}

func TestSaveUnauthenticated(t *testing.T) {
	users := seededUsers(t)
	resync := &fakeResyncer{}
	e := NewEditor(users, resync)

	_, err := e.Save(context.Background(), session.Session{}, user.UpdateProfileRequest{
		Name:  "Nobody",
		Email: "nobody@example.com",
	})

	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}

	all, _ := users.List(context.Background())

	if len(all) != 3 {
		t.Error("directory changed by an unauthenticated edit")
	}

	if resync.calls != 0 {
		t.Error("resync ran for an unauthenticated session")
	}
}
