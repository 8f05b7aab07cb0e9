package auth

import (
	"context"
	"errors"
	"time"
)

// ErrMissingCredentials is returned before any network call when the login
// form is incomplete.
var ErrMissingCredentials = errors.New("email and password are required")

// Service defines the browser-side authentication flows.
type Service interface {
	// Login exchanges credentials for a token and caches the session user.
	Login(ctx context.Context, email, password string) (*SessionUser, error)

	// Register creates an account and signs it in.
	Register(ctx context.Context, req RegisterRequest) (*SessionUser, error)

	// Logout forgets the token and the cached user.
	Logout(ctx context.Context) error

	// Me refreshes the cached user from the API. An invalid token logs out.
	Me(ctx context.Context) (*SessionUser, error)

	// CurrentUser returns the cached user, or nil when signed out.
	CurrentUser(ctx context.Context) (*SessionUser, error)

	// Revalidate returns the cached user, refreshing it through Me when it
	// is missing or was last confirmed more than maxAge ago. When the API
	// cannot be reached the cached user is returned with the error.
	Revalidate(ctx context.Context, maxAge time.Duration) (*SessionUser, error)

	// Token returns the stored bearer token, or "" when absent or expired.
	Token(ctx context.Context) (string, error)
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}
