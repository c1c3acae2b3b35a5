package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/session"
	"github.com/chargelog/chargelog/internal/store"
)

// mockAuth is a hand-written test double for session.AuthProvider.
type mockAuth struct {
	signUp  func(ctx context.Context, email, password, displayName string) (session.Session, error)
	signIn  func(ctx context.Context, email, password string) (session.Session, error)
	signOut func(ctx context.Context) error
}

func (m *mockAuth) SignUp(ctx context.Context, email, password, displayName string) (session.Session, error) {
	return m.signUp(ctx, email, password, displayName)
}
func (m *mockAuth) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	return m.signIn(ctx, email, password)
}
func (m *mockAuth) SignOut(ctx context.Context) error {
	if m.signOut != nil {
		return m.signOut(ctx)
	}
	return nil
}

var _ session.AuthProvider = (*mockAuth)(nil)

// ---- helpers ---------------------------------------------------------------

func passthroughAuth() *mockAuth {
	return &mockAuth{
		signUp: func(_ context.Context, email, _, displayName string) (session.Session, error) {
			return session.Session{UserID: "user-1", Email: email, DisplayName: displayName}, nil
		},
		signIn: func(_ context.Context, email, _ string) (session.Session, error) {
			return session.Session{UserID: "user-1", Email: email}, nil
		},
	}
}

func newManager(auth session.AuthProvider, s store.Store) *session.Manager {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewManager(auth, store.NewProfiles(s), log)
}

// ---- session change notifications ------------------------------------------

func TestManager_OnSessionChange_NotifiesOnSignIn(t *testing.T) {
	m := newManager(passthroughAuth(), store.NewMemStore())

	var got []*session.Session
	m.OnSessionChange(func(s *session.Session) { got = append(got, s) })

	_, err := m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "user-1", got[0].UserID)
}

func TestManager_OnSessionChange_ImmediateInvokeWhenActive(t *testing.T) {
	m := newManager(passthroughAuth(), store.NewMemStore())
	_, err := m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	var got *session.Session
	m.OnSessionChange(func(s *session.Session) { got = s })

	// A handler registered after sign-in sees the current session right away.
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
}

func TestManager_OnSessionChange_Unregister(t *testing.T) {
	m := newManager(passthroughAuth(), store.NewMemStore())

	calls := 0
	unregister := m.OnSessionChange(func(*session.Session) { calls++ })
	unregister()

	_, err := m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	assert.Zero(t, calls)
}

func TestManager_SignOut_NotifiesNil(t *testing.T) {
	m := newManager(passthroughAuth(), store.NewMemStore())
	_, err := m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	var got []*session.Session
	m.OnSessionChange(func(s *session.Session) { got = append(got, s) })

	require.NoError(t, m.SignOut(context.Background()))

	require.Len(t, got, 2) // immediate invoke, then the sign-out
	assert.Nil(t, got[1])
	assert.Nil(t, m.Current())
}

// ---- profile bootstrap -----------------------------------------------------

func TestManager_SignUp_CreatesProfile(t *testing.T) {
	s := store.NewMemStore()
	m := newManager(passthroughAuth(), s)

	_, err := m.SignUp(context.Background(), "alice@example.com", "correct horse", "Alice")
	require.NoError(t, err)

	profile, err := store.NewProfiles(s).Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestManager_SignIn_DefaultsDisplayNameFromEmail(t *testing.T) {
	s := store.NewMemStore()
	m := newManager(passthroughAuth(), s)

	_, err := m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	profile, err := store.NewProfiles(s).Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.DisplayName)
}

func TestManager_SignIn_ExistingProfileUntouched(t *testing.T) {
	s := store.NewMemStore()
	_, err := store.NewProfiles(s).Ensure(context.Background(), "user-1",
		domain.Profile{DisplayName: "Original Name", Email: "alice@example.com"})
	require.NoError(t, err)

	m := newManager(passthroughAuth(), s)
	_, err = m.SignIn(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	profile, err := store.NewProfiles(s).Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Original Name", profile.DisplayName, "profile creation is first-write-wins")
}

func TestManager_SignIn_AuthFailurePropagates(t *testing.T) {
	auth := passthroughAuth()
	auth.signIn = func(context.Context, string, string) (session.Session, error) {
		return session.Session{}, &session.AuthError{Code: session.CodeWrongPassword}
	}
	m := newManager(auth, store.NewMemStore())

	var notified bool
	m.OnSessionChange(func(*session.Session) { notified = true })

	_, err := m.SignIn(context.Background(), "alice@example.com", "nope")

	require.Error(t, err)
	assert.Nil(t, m.Current())
	assert.False(t, notified, "a failed sign-in must not activate a session")
}

// ---- MapAuthError ----------------------------------------------------------

func TestMapAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"known code", &session.AuthError{Code: session.CodeWrongPassword}, "Incorrect password"},
		{"wrapped known code", &session.AuthError{Code: session.CodeUserNotFound, Err: errors.New("sql: no rows")}, "No account found with this email"},
		{"unknown code", &session.AuthError{Code: "some-new-code"}, "Authentication failed. Please try again"},
		{"plain error", errors.New("connection refused"), "Authentication failed. Please try again"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, session.MapAuthError(tc.err))
		})
	}
}
