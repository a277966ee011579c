package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgauth "github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
)

const metricsStore = "session"

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// CartClearer is the cart dependency logout cascades into.
type CartClearer interface {
	Clear(ctx context.Context)
}

// Snapshot is the session read model. User and Token are both set or both empty.
type Snapshot struct {
	State     State     `json:"state"`
	User      *User     `json:"user,omitempty"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Session holds the current identity and credential. Logout always empties the cart
// before returning.
type Session struct {
	mu        sync.Mutex
	user      *User
	token     string
	expiresAt time.Time

	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int

	kv      storage.KV
	key     string
	cart    CartClearer
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

type Option func(*Session)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Session) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.key = key
		}
	}
}

// NewSession restores the persisted session. Missing, corrupt or partial records start
// Anonymous.
func NewSession(ctx context.Context, kv storage.KV, cart CartClearer, opts ...Option) (*Session, error) {
	if kv == nil {
		return nil, fmt.Errorf("session storage required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	s := &Session{
		kv:   kv,
		key:  StorageKey,
		cart: cart,
		logg: logger.Nop(),
		subs: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.restore(ctx)
	return s, nil
}

func (s *Session) restore(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "storage_key", s.key)
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Error(ctx, "session.load_failed", err)
		return
	}
	user, token, err := decodeRecord(data)
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "session.storage_corrupt")
		return
	}
	s.user = &user
	s.token = token
	s.expiresAt = pkgauth.CredentialExpiry(token)
	s.logg.Debug(s.logg.WithUserID(ctx, user.ID), "session.restored")
}

// Login stores identity and credential. A login while authenticated replaces both.
func (s *Session) Login(ctx context.Context, user User, credential string) error {
	credential = strings.TrimSpace(credential)
	if user.ID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if credential == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "credential is required")
	}

	s.mu.Lock()
	transition := "login"
	if s.user != nil {
		transition = "relogin"
	}
	u := user
	s.user = &u
	s.token = credential
	s.expiresAt = pkgauth.CredentialExpiry(credential)

	ctx = s.logg.WithUserID(ctx, user.ID)
	data, err := encodeRecord(user, credential)
	if err == nil {
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Error(ctx, "session.persist_failed", err)
	}
	snap := s.snapshotLocked()

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.metrics.IncSessionTransition(transition)
	s.logg.Info(ctx, "session."+transition)
	s.publish(snap)
	return nil
}

// Logout returns to Anonymous, removes the persisted record and clears the cart.
// While already Anonymous only the cart cascade runs.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.user != nil
	if wasAuthenticated {
		ctx = s.logg.WithUserID(ctx, s.user.ID)
		s.user = nil
		s.token = ""
		s.expiresAt = time.Time{}
		if err := s.kv.Remove(ctx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.metrics.IncStorageFailure(metricsStore)
			s.logg.Error(ctx, "session.remove_failed", err)
		}
	}
	snap := s.snapshotLocked()

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.cart.Clear(ctx)
	if !wasAuthenticated {
		return
	}
	s.metrics.IncSessionTransition("logout")
	s.logg.Info(ctx, "session.logout")
	s.publish(snap)
}

// Current returns the session read model.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Expired reports whether an authenticated session holds a credential past its expiry.
func (s *Session) Expired(now time.Time) bool {
	snap := s.Current()
	return snap.Authenticated() && pkgauth.Expired(snap.ExpiresAt, now)
}

func (s *Session) snapshotLocked() Snapshot {
	if s.user == nil {
		return Snapshot{State: StateAnonymous}
	}
	u := *s.user
	if s.user.Address != nil {
		addr := *s.user.Address
		u.Address = &addr
	}
	return Snapshot{State: StateAuthenticated, User: &u, Token: s.token, ExpiresAt: s.expiresAt}
}

// Subscribe registers fn for every subsequent transition.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) publish(snap Snapshot) {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
