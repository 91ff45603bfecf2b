package service

import "fmt"

// AuthError is returned by sign-up and sign-in. Message is meant to be shown
// to the user verbatim; Code is stable for clients to branch on.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// --- Error Definitions ---
var (
	ErrInvalidEmail         = &AuthError{Code: "auth/invalid-email", Message: "The email address is badly formatted."}
	ErrMissingCredentials   = &AuthError{Code: "auth/missing-credentials", Message: "Email and password are required."}
	ErrWeakPassword         = &AuthError{Code: "auth/weak-password", Message: "Password should be at least 6 characters."}
	ErrUserAlreadyExists    = &AuthError{Code: "auth/email-already-in-use", Message: "The email address is already in use by another account."}
	ErrAuthenticationFailed = &AuthError{Code: "auth/invalid-credential", Message: "Invalid email or password."}
	ErrAuthUnavailable      = &AuthError{Code: "auth/network-request-failed", Message: "Authentication is temporarily unavailable. Please try again."}
)

// StoreError wraps a failed read or write against the store. It is
// logged for operators and never shown to users.
type StoreError struct {
	Op  string // "create", "recent", "all", "workout_create", ...
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
