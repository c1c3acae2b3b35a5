package domain

import "errors"

// ErrNotFound is returned by store and tracker functions when the requested
// record does not exist in the scoped collection.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing required field, negative energy value). It is always raised
// before any store call is made.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAuthenticated is returned when an operation requiring an active
// identity is attempted while signed out.
// Handlers should map this to HTTP 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrStoreUnavailable is returned when the document store cannot be reached.
// The operation failed but local state is unchanged, so the caller may retry.
// Handlers should map this to HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrInvalidFormat is returned when an import payload is structurally
// malformed. The import is aborted before any store write.
// Handlers should map this to HTTP 400.
var ErrInvalidFormat = errors.New("invalid format")
