package session

import (
	"context"

	"github.com/google/uuid"
)

// Authenticator establishes who the user is. Implementations may block on
// an identity provider; they must honour ctx cancellation.
type Authenticator interface {
	Authenticate(ctx context.Context) (User, error)
}

// MockAuthenticator signs in a fixed demo parent without contacting any
// identity provider.
type MockAuthenticator struct {
	method string
	newID  func() string
}

// NewMockAuthenticator returns an authenticator that reports method as the
// login method, e.g. "google".
func NewMockAuthenticator(method string) *MockAuthenticator {
	if method == "" {
		method = "google"
	}
	return &MockAuthenticator{
		method: method,
		newID:  func() string { return "user_" + uuid.NewString() },
	}
}

func (a *MockAuthenticator) Authenticate(ctx context.Context) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	return User{
		ID:          a.newID(),
		Name:        "HCPSS Parent",
		Email:       "parent@example.com",
		Avatar:      "👤",
		LoginMethod: a.method,
	}, nil
}
