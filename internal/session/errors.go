package session

import "errors"

// Provider error codes. These mirror the codes a federated auth provider
// reports; the local provider raises the same set so callers have one
// mapping table.
const (
	CodeUserNotFound  = "user-not-found"
	CodeWrongPassword = "wrong-password"
	CodeEmailInUse    = "email-already-in-use"
	CodeWeakPassword  = "weak-password"
	CodeInvalidEmail  = "invalid-email"
	CodePopupClosed   = "popup-closed-by-user"
)

// AuthError carries a provider error code alongside the underlying cause.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// authMessages maps provider codes to the short user-facing messages shown
// at the boundary where a sign-in or sign-up attempt failed.
var authMessages = map[string]string{
	CodeUserNotFound:  "No account found with this email",
	CodeWrongPassword: "Incorrect password",
	CodeEmailInUse:    "An account with this email already exists",
	CodeWeakPassword:  "Password should be at least 8 characters",
	CodeInvalidEmail:  "Invalid email address",
	CodePopupClosed:   "Sign-in was cancelled",
}

// MapAuthError turns a provider failure into a user-facing message.
// Unknown codes and non-auth errors get a generic fallback.
func MapAuthError(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		if msg, ok := authMessages[authErr.Code]; ok {
			return msg
		}
	}
	return "Authentication failed. Please try again"
}
