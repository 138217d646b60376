// Package session binds the process to the auth provider's notion of who is
// signed in. Components read the current value through a Source and never
// set it themselves.
package session

import (
	"context"
	"sync"

	"blogsync/app/auth"

	"github.com/golang/glog"
)

// Session is the caller's identity. The zero value means no one is signed in.
type Session struct {
	UserID string
	Email  string
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// FromUser converts a provider user, which may be nil, into a Session.
func FromUser(u *auth.User) Session {
	if u == nil {
		return Session{}
	}
	return Session{UserID: u.ID, Email: u.Email}
}

// Source yields the current session.
type Source interface {
	Current() Session
}

// Static is a Source that always returns the same session.
type Static Session

func (s Static) Current() Session { return Session(s) }

// Anonymous is a Source with no identity.
var Anonymous Source = Static{}

// State mirrors the provider's session and fans changes out to watchers.
type State struct {
	provider auth.Provider

	mutex    sync.RWMutex
	current  Session
	watchers map[int]func(Session)
	nextID   int
	detach   func()
}

// NewState initializes from provider.Current and follows its notifications
// until Close.
func NewState(provider auth.Provider) *State {
	s := &State{
		provider: provider,
		current:  FromUser(provider.Current()),
		watchers: make(map[int]func(Session)),
	}
	s.detach = provider.Subscribe(s.onChange)
	return s
}

func (s *State) Current() Session {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.current
}

// Watch calls fn after every session change until the returned function is called.
func (s *State) Watch(fn func(Session)) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.watchers, id)
	}
}

// Logout asks the provider to sign out. The session becomes none when the
// provider reports the change. Data already fetched for the old identity
// is left where it is.
func (s *State) Logout(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// Close stops following the provider.
func (s *State) Close() {
	s.mutex.Lock()
	detach := s.detach
	s.detach = nil
	s.mutex.Unlock()
	if detach != nil {
		detach()
	}
}

func (s *State) onChange(u *auth.User) {
	next := FromUser(u)

	s.mutex.Lock()
	if next == s.current {
		s.mutex.Unlock()
		return
	}
	s.current = next
	watchers := make([]func(Session), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mutex.Unlock()

	glog.V(1).Infof("[session] now %q", next.UserID)
	for _, fn := range watchers {
		fn(next)
	}
}
