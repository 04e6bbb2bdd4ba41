// internal/app/system/identity/identity.go
//
// Package identity abstracts the external identity provider that owns
// credentials. Profiles in Mongo never store passwords; they are keyed by the
// provider's subject id, which is the only linkage between the two systems.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrEmailExists reports that the provider already has an account for
	// this email. Provisioning maps this to a field-level conflict.
	ErrEmailExists = errors.New("identity: email already registered")

	// ErrInvalidCredentials covers wrong password and unknown email on
	// sign-in; callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrAccountNotFound reports a subject id with no account behind it.
	ErrAccountNotFound = errors.New("identity: account not found")

	// ErrUnavailable reports that the provider could not be reached or
	// answered with a server error. Retryable.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// Account is the provider's view of a user.
type Account struct {
	Subject     string // provider-issued stable id; profile _id mirrors it
	Email       string
	DisplayName string
}

// Session is a successful sign-in: the account plus a bearer token that
// VerifyToken accepts until sign-out.
type Session struct {
	Account Account
	Token   string
}

// Provider is the credential authority. Implementations must return the
// package sentinel errors above so provisioning can classify failures.
type Provider interface {
	// CreateAccount registers credentials and returns the new subject.
	CreateAccount(ctx context.Context, email, password, displayName string) (Account, error)

	// SignIn verifies credentials and mints a session token.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignOut revokes all outstanding tokens for the subject.
	SignOut(ctx context.Context, subject string) error

	// VerifyToken resolves a bearer token to the account that owns it.
	VerifyToken(ctx context.Context, token string) (Account, error)

	// UpdateDisplayName pushes a profile rename to the provider.
	UpdateDisplayName(ctx context.Context, subject, displayName string) error

	// DeleteAccount removes credentials. Used by repair tooling only;
	// normal profile deletion leaves the account and records a marker.
	DeleteAccount(ctx context.Context, subject string) error

	// Secondary returns an independent instance of the provider for
	// provisioning writes, so admin-created accounts never touch the
	// session state of the signed-in admin performing the creation.
	Secondary() Provider
}
