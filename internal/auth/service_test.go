package auth

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
)

type stubBackend struct {
	user  *User
	token string
	err   error
	calls int
}

func (s *stubBackend) Login(context.Context, string, string) (*User, string, error) {
	s.calls++
	return s.user, s.token, s.err
}

func newTestService(t *testing.T, backend Backend) (*Service, *countingClearer) {
	t.Helper()
	clearer := &countingClearer{}
	svc, err := NewService(backend, newTestSession(t, memory.New(), clearer), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, clearer
}

func TestSignInValidatesForm(t *testing.T) {
	backend := &stubBackend{}
	svc, _ := newTestService(t, backend)

	_, err := svc.SignIn(context.Background(), LoginRequest{Username: "  ", Password: "pw"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "Username is required." {
		t.Fatalf("expected username validation error, got %v", err)
	}

	_, err = svc.SignIn(context.Background(), LoginRequest{Username: "emilys"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Message() != "Password is required." {
		t.Fatalf("expected password validation error, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatal("backend must not be called for an invalid form")
	}
}

func TestSignInLogsSessionIn(t *testing.T) {
	svc, _ := newTestService(t, &stubBackend{user: &emily, token: "tok"})
	snap, err := svc.SignIn(context.Background(), LoginRequest{Username: "emilys", Password: "emilyspass"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !snap.Authenticated() || snap.User.ID != emily.ID {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSignInSurfacesAuthError(t *testing.T) {
	svc, _ := newTestService(t, &stubBackend{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials.")})
	snap, err := svc.SignIn(context.Background(), LoginRequest{Username: "emilys", Password: "nope"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if snap.Authenticated() {
		t.Fatal("rejected login must leave the session anonymous")
	}
}

func TestSignOutCascades(t *testing.T) {
	svc, clearer := newTestService(t, &stubBackend{user: &emily, token: "tok"})
	if _, err := svc.SignIn(context.Background(), LoginRequest{Username: "emilys", Password: "pw"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	snap := svc.SignOut(context.Background())
	if snap.Authenticated() || clearer.calls != 1 {
		t.Fatalf("expected anonymous and one cart clear, got %+v / %d", snap, clearer.calls)
	}
}
