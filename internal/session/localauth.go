package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen is the weakest password the local provider accepts.
const minPasswordLen = 8

// tokenTTL is how long an issued access token stays valid.
const tokenTTL = 24 * time.Hour

// authDB is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and
// pgx.Tx, mirroring the store package's db interface for test isolation.
type authDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LocalAuth is a password-based AuthProvider backed by an auth_users table.
// Passwords are stored as bcrypt hashes; sessions are exchanged for signed
// JWT access tokens so the HTTP layer can resolve an identity per request.
type LocalAuth struct {
	db     authDB
	secret []byte
}

// NewLocalAuth constructs a LocalAuth signing tokens with secret.
func NewLocalAuth(db authDB, secret []byte) *LocalAuth {
	return &LocalAuth{db: db, secret: secret}
}

// SignUp creates a new account. Fails with CodeInvalidEmail, CodeWeakPassword,
// or CodeEmailInUse wrapped in an AuthError.
func (a *LocalAuth) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return Session{}, &AuthError{Code: CodeInvalidEmail}
	}
	if len(password) < minPasswordLen {
		return Session{}, &AuthError{Code: CodeWeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("session.LocalAuth.SignUp: hash: %w", err)
	}

	const q = `
		INSERT INTO auth_users (id, email, password_hash, display_name)
		VALUES (@id, @email, @password_hash, @display_name)`

	args := pgx.NamedArgs{
		"id":            uuid.NewString(),
		"email":         email,
		"password_hash": string(hash),
		"display_name":  displayName,
	}

	if _, err := a.db.Exec(ctx, q, args); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return Session{}, &AuthError{Code: CodeEmailInUse}
		}
		return Session{}, fmt.Errorf("session.LocalAuth.SignUp: %w", err)
	}

	return Session{UserID: args["id"].(string), Email: email, DisplayName: displayName}, nil
}

// SignIn authenticates an existing account. Fails with CodeUserNotFound or
// CodeWrongPassword wrapped in an AuthError.
func (a *LocalAuth) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	const q = `
		SELECT id, email, password_hash, display_name
		FROM auth_users
		WHERE email = @email`

	var (
		s    Session
		hash string
	)
	err := a.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}).
		Scan(&s.UserID, &s.Email, &hash, &s.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, &AuthError{Code: CodeUserNotFound}
		}
		return Session{}, fmt.Errorf("session.LocalAuth.SignIn: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, &AuthError{Code: CodeWrongPassword}
	}
	return s, nil
}

// SignOut is stateless for the local provider: tokens simply expire.
func (a *LocalAuth) SignOut(ctx context.Context) error {
	return nil
}

// tokenClaims is the JWT payload for an issued access token.
type tokenClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for the session.
func (a *LocalAuth) IssueToken(s Session) (string, error) {
	claims := tokenClaims{
		Email:       s.Email,
		DisplayName: s.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("session.LocalAuth.IssueToken: %w", err)
	}
	return token, nil
}

// VerifyToken validates a bearer token and returns the session it encodes.
func (a *LocalAuth) VerifyToken(tokenString string) (Session, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Session{}, fmt.Errorf("session.LocalAuth.VerifyToken: %w", err)
	}

	return Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}
