package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type countingClearer struct {
	calls int
}

func (c *countingClearer) Clear(context.Context) { c.calls++ }

var emily = User{ID: 1, Username: "emilys", Email: "emily@example.com", FirstName: "Emily", LastName: "Johnson"}

func newTestSession(t *testing.T, kv storage.KV, clearer CartClearer) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), kv, clearer)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSessionValidatesDependencies(t *testing.T) {
	if _, err := NewSession(context.Background(), nil, &countingClearer{}); err == nil {
		t.Fatal("expected error without storage")
	}
	if _, err := NewSession(context.Background(), memory.New(), nil); err == nil {
		t.Fatal("expected error without cart clearer")
	}
}

func TestLoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestSession(t, kv, &countingClearer{})

	if cur := s.Current(); cur.Authenticated() || cur.User != nil {
		t.Fatalf("expected anonymous start, got %+v", cur)
	}
	if err := s.Login(ctx, emily, "opaque-token"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cur := s.Current()
	if !cur.Authenticated() || cur.User.Username != "emilys" || cur.Token != "opaque-token" {
		t.Fatalf("unexpected session %+v", cur)
	}

	restored := newTestSession(t, kv, &countingClearer{})
	got := restored.Current()
	if !got.Authenticated() || got.User.ID != 1 || got.Token != "opaque-token" {
		t.Fatalf("unexpected restored session %+v", got)
	}
}

func TestLoginOverwritesExistingSession(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, memory.New(), &countingClearer{})
	if err := s.Login(ctx, emily, "first"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	other := User{ID: 2, Username: "michaelw"}
	if err := s.Login(ctx, other, "second"); err != nil {
		t.Fatalf("relogin should overwrite, got %v", err)
	}
	cur := s.Current()
	if cur.User.ID != 2 || cur.Token != "second" {
		t.Fatalf("expected overwritten session, got %+v", cur)
	}
}

func TestLoginRejectsPartialIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, memory.New(), &countingClearer{})

	if err := s.Login(ctx, User{Username: "x"}, "tok"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	if err := s.Login(ctx, emily, "  "); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank credential, got %v", err)
	}
	if s.Current().Authenticated() {
		t.Fatal("failed login must not change state")
	}
}

func TestLogoutClearsCartAndRecord(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	carts, err := cart.NewStore(ctx, kv)
	if err != nil {
		t.Fatalf("cart.NewStore: %v", err)
	}
	s := newTestSession(t, kv, carts)

	if err := s.Login(ctx, emily, "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	carts.AddItem(ctx, catalog.Product{ID: 4, Price: decimal.NewFromInt(8)})
	carts.AddItem(ctx, catalog.Product{ID: 4, Price: decimal.NewFromInt(8)})

	s.Logout(ctx)

	if s.Current().Authenticated() {
		t.Fatal("expected anonymous after logout")
	}
	if carts.Count() != 0 {
		t.Fatalf("cart must be empty after logout, got %+v", carts.Items())
	}
	if _, err := kv.Get(ctx, StorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected auth record removed, got %v", err)
	}
}

func TestLogoutWhileAnonymous(t *testing.T) {
	ctx := context.Background()
	clearer := &countingClearer{}
	s := newTestSession(t, memory.New(), clearer)

	notified := 0
	s.Subscribe(func(Snapshot) { notified++ })

	s.Logout(ctx)
	s.Logout(ctx)

	if s.Current().Authenticated() {
		t.Fatal("expected anonymous")
	}
	if notified != 0 {
		t.Fatalf("anonymous logout should not notify, got %d", notified)
	}
	if clearer.calls != 2 {
		t.Fatalf("cart cascade should run on every logout, got %d", clearer.calls)
	}
}

func TestSubscribeSeesTransitions(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, memory.New(), &countingClearer{})

	var states []State
	unsubscribe := s.Subscribe(func(snap Snapshot) { states = append(states, snap.State) })

	_ = s.Login(ctx, emily, "tok")
	s.Logout(ctx)
	unsubscribe()
	_ = s.Login(ctx, emily, "tok")

	if len(states) != 2 || states[0] != StateAuthenticated || states[1] != StateAnonymous {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestRestoreTreatsBadRecordsAsAnonymous(t *testing.T) {
	ctx := context.Background()
	for name, raw := range map[string]string{
		"garbage":       "%%%",
		"no token":      `{"state":{"user":{"id":1,"username":"emilys"},"token":null},"version":0}`,
		"no user":       `{"state":{"user":null,"token":"tok"},"version":0}`,
		"missing state": `{"version":0}`,
	} {
		kv := memory.New()
		_ = kv.Set(ctx, StorageKey, []byte(raw))
		s := newTestSession(t, kv, &countingClearer{})
		if s.Current().Authenticated() {
			t.Fatalf("%s: expected anonymous", name)
		}
	}
}

func TestSessionTracksCredentialExpiry(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  1,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	s := newTestSession(t, memory.New(), &countingClearer{})
	if err := s.Login(ctx, emily, token); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.Current().ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, s.Current().ExpiresAt)
	}
	if s.Expired(time.Now()) {
		t.Fatal("credential should not be expired yet")
	}
	if !s.Expired(exp.Add(time.Second)) {
		t.Fatal("credential should be expired after exp")
	}
}
