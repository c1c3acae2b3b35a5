// Package session tracks the authenticated identity and notifies interested
// parties on sign-in and sign-out transitions. It also owns profile creation
// on first sign-in.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/store"
)

// Session identifies an authenticated user.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// Handler receives identity transitions. A nil session means signed out.
type Handler func(s *Session)

// AuthProvider is the narrow contract the manager needs from the
// authentication collaborator. Defined here, in the consumer package.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
}

// Manager wraps an AuthProvider, fans out session changes to registered
// handlers, and ensures a profile record exists for every identity on its
// first observed sign-in.
type Manager struct {
	auth     AuthProvider
	profiles *store.Profiles
	log      *slog.Logger

	mu       sync.Mutex
	current  *Session
	handlers map[int]Handler
	nextID   int
}

// NewManager constructs a Manager over the given provider and profile store.
func NewManager(auth AuthProvider, profiles *store.Profiles, log *slog.Logger) *Manager {
	return &Manager{
		auth:     auth,
		profiles: profiles,
		log:      log,
		handlers: make(map[int]Handler),
	}
}

// OnSessionChange registers a handler for sign-in/sign-out transitions and
// returns an unregister function. If a session is already active the handler
// is invoked immediately with it.
func (m *Manager) OnSessionChange(h Handler) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	current := m.current
	m.mu.Unlock()

	if current != nil {
		h(current)
	}

	return func() {
		m.mu.Lock()
		delete(m.handlers, id)
		m.mu.Unlock()
	}
}

// SignUp registers a new account, ensures its profile, and notifies handlers.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	s, err := m.auth.SignUp(ctx, email, password, displayName)
	if err != nil {
		return Session{}, fmt.Errorf("session.Manager.SignUp: %w", err)
	}
	m.activate(ctx, s)
	return s, nil
}

// SignIn authenticates with email and password, ensures the identity's
// profile exists, and notifies handlers.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	s, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("session.Manager.SignIn: %w", err)
	}
	m.activate(ctx, s)
	return s, nil
}

// SignOut ends the current session and notifies handlers with a nil session.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.auth.SignOut(ctx); err != nil {
		return fmt.Errorf("session.Manager.SignOut: %w", err)
	}

	m.mu.Lock()
	m.current = nil
	handlers := m.snapshotHandlers()
	m.mu.Unlock()

	for _, h := range handlers {
		h(nil)
	}
	return nil
}

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// activate records the new session, ensures its profile, and fans out the
// transition. Profile creation failure is non-fatal: the user stays signed
// in and the failure is logged at warn level.
func (m *Manager) activate(ctx context.Context, s Session) {
	if err := m.ensureProfile(ctx, s); err != nil {
		m.log.Warn("profile creation failed, session remains valid",
			"user_id", s.UserID, "error", err)
	}

	m.mu.Lock()
	copied := s
	m.current = &copied
	handlers := m.snapshotHandlers()
	m.mu.Unlock()

	for _, h := range handlers {
		h(&copied)
	}
}

// ensureProfile creates the identity's profile if absent. Existing profiles
// are never overwritten. Defaults are derived from the display name, falling
// back to the email local part.
func (m *Manager) ensureProfile(ctx context.Context, s Session) error {
	name := s.DisplayName
	if name == "" {
		name = emailLocalPart(s.Email)
	}

	_, err := m.profiles.Ensure(ctx, s.UserID, domain.Profile{
		DisplayName: name,
		Email:       s.Email,
	})
	return err
}

// snapshotHandlers copies the handler set under the lock so notification
// happens outside it.
func (m *Manager) snapshotHandlers() []Handler {
	out := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		out = append(out, h)
	}
	return out
}

// emailLocalPart returns everything before the "@" of an email address.
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
