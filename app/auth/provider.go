// Package auth provides the identity side of the backend: who is signed in,
// and notifications when that changes.
package auth

import "context"

// User is an authenticated identity.
type User struct {
	ID    string
	Email string
}

// Provider is the auth capability the application observes.
type Provider interface {
	// Current returns the signed-in user, or nil.
	Current() *User
	// Subscribe registers fn for every later session change. Calling the
	// returned function detaches it.
	Subscribe(fn func(*User)) (unsubscribe func())
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}
