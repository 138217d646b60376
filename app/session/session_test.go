package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blogsync/app/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mutex      sync.Mutex
	current    *auth.User
	subs       map[int]func(*auth.User)
	next       int
	signOutErr error
}

func newFakeProvider(current *auth.User) *fakeProvider {
	return &fakeProvider{current: current, subs: make(map[int]func(*auth.User))}
}

func (f *fakeProvider) Current() *auth.User {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.current
}

func (f *fakeProvider) Subscribe(fn func(*auth.User)) func() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.emit(nil)
	return nil
}

func (f *fakeProvider) emit(u *auth.User) {
	f.mutex.Lock()
	f.current = u
	subs := make([]func(*auth.User), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mutex.Unlock()
	for _, fn := range subs {
		fn(u)
	}
}

func (f *fakeProvider) subscribers() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.subs)
}

func TestSession(t *testing.T) {
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{UserID: "u1"}.Authenticated())
	assert.Equal(t, Session{}, FromUser(nil))
	assert.Equal(t, Session{UserID: "u1", Email: "a@b.c"}, FromUser(&auth.User{ID: "u1", Email: "a@b.c"}))
	assert.Equal(t, Session{UserID: "u2"}, Static{UserID: "u2"}.Current())
	assert.False(t, Anonymous.Current().Authenticated())
}

func TestStateFollowsProvider(t *testing.T) {
	provider := newFakeProvider(&auth.User{ID: "u1", Email: "u1@example.com"})
	state := NewState(provider)
	defer state.Close()

	assert.Equal(t, "u1", state.Current().UserID)

	var changes []Session
	stop := state.Watch(func(s Session) { changes = append(changes, s) })

	provider.emit(&auth.User{ID: "u2", Email: "u2@example.com"})
	assert.Equal(t, "u2", state.Current().UserID)

	// No change, no notification.
	provider.emit(&auth.User{ID: "u2", Email: "u2@example.com"})

	require.NoError(t, state.Logout(context.Background()))
	assert.False(t, state.Current().Authenticated())

	require.Len(t, changes, 2)
	assert.Equal(t, "u2", changes[0].UserID)
	assert.False(t, changes[1].Authenticated())

	stop()
	provider.emit(&auth.User{ID: "u3"})
	assert.Len(t, changes, 2)
	assert.Equal(t, "u3", state.Current().UserID)
}

func TestStateLogoutFailure(t *testing.T) {
	provider := newFakeProvider(&auth.User{ID: "u1"})
	provider.signOutErr = errors.New("offline")
	state := NewState(provider)
	defer state.Close()

	assert.Error(t, state.Logout(context.Background()))
	assert.Equal(t, "u1", state.Current().UserID)
}

func TestStateClose(t *testing.T) {
	provider := newFakeProvider(nil)
	state := NewState(provider)
	assert.Equal(t, 1, provider.subscribers())

	state.Close()
	state.Close()
	assert.Equal(t, 0, provider.subscribers())

	provider.emit(&auth.User{ID: "u1"})
	assert.False(t, state.Current().Authenticated())
}
