// Package session tracks who is signed in. The persisted current_user record
// is the only authentication signal; there are no tokens and no expiry.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

// User is the signed-in identity.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	LoginMethod string `json:"loginMethod"`
}

// Session is the explicit context handed to components that act on behalf
// of a user.
type Session struct {
	User      User
	StartedAt time.Time
}

// UserID returns the id that namespaces the user's persisted keys.
func (s Session) UserID() string {
	return s.User.ID
}

// EventKind distinguishes login from logout.
type EventKind int

const (
	LoggedIn EventKind = iota
	LoggedOut
)

func (k EventKind) String() string {
	switch k {
	case LoggedIn:
		return "logged_in"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event describes a session lifecycle change.
type Event struct {
	Kind    EventKind
	Session Session
}

// Listener is called after a login or logout completes. Listeners run
// synchronously on the caller's goroutine, outside the manager lock.
type Listener func(Event)

// Manager owns the current session and its persisted record.
type Manager struct {
	mu        sync.RWMutex
	store     state.Store
	auth      Authenticator
	logger    *zap.Logger
	now       func() time.Time
	current   *Session
	listeners []Listener
}

// NewManager creates a Manager that signs users in through auth.
func NewManager(store state.Store, auth Authenticator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// OnChange registers a listener for login and logout events.
func (m *Manager) OnChange(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Current returns the signed-in session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Restore reloads the persisted user, if one exists. A malformed record is
// logged and ignored; it is not deleted.
func (m *Manager) Restore() (Session, bool) {
	raw, ok := m.store.Get(state.CurrentUserKey)
	if !ok || raw == "" {
		return Session{}, false
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.logger.Warn("malformed current_user record, ignoring", zap.Error(err))
		return Session{}, false
	}
	if u.ID == "" {
		m.logger.Warn("current_user record has no id, ignoring")
		return Session{}, false
	}

	s := Session{User: u, StartedAt: m.now()}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Info("session restored", zap.String("user_id", u.ID))
	return s, true
}

// Login authenticates a user and persists them as current_user. A failed
// write is logged; the session still holds for this process.
func (m *Manager) Login(ctx context.Context) (Session, error) {
	u, err := m.auth.Authenticate(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("authenticating: %w", err)
	}

	data, err := json.Marshal(u)
	if err != nil {
		return Session{}, fmt.Errorf("encoding user: %w", err)
	}
	if err := m.store.Set(state.CurrentUserKey, string(data)); err != nil {
		m.logger.Warn("current_user not persisted", zap.String("user_id", u.ID), zap.Error(err))
	}

	s := Session{User: u, StartedAt: m.now()}
	m.mu.Lock()
	m.current = &s
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.logger.Info("logged in", zap.String("user_id", u.ID), zap.String("method", u.LoginMethod))
	for _, fn := range listeners {
		fn(Event{Kind: LoggedIn, Session: s})
	}
	return s, nil
}

// Logout forgets the current user. It is a no-op when nobody is signed in.
func (m *Manager) Logout() {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	s := *m.current
	m.current = nil
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if err := m.store.Delete(state.CurrentUserKey); err != nil {
		m.logger.Warn("current_user not deleted", zap.Error(err))
	}

	m.logger.Info("logged out", zap.String("user_id", s.User.ID))
	for _, fn := range listeners {
		fn(Event{Kind: LoggedOut, Session: s})
	}
}
