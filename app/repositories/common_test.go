package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"blogsync/app/apperr"
	"blogsync/app/remote"
	"blogsync/app/remote/mock"
	"blogsync/app/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = session.Static{UserID: "u1", Email: "alice@example.com"}
	bob   = session.Static{UserID: "u2", Email: "bob@example.com"}

	errUnavailable = errors.New("store unavailable")
)

// fastRetry retries quickly enough for tests.
func fastRetry() RetryPolicy {
	return RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxElapsed: time.Second}
}

func setupStore(t *testing.T, opts ...remote.BadgerOption) *remote.BadgerStore {
	store, err := remote.OpenBadger("", true, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure is retried", func(t *testing.T) {
		attempts := 0
		v, err := retry(ctx, fastRetry(), "test", func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errUnavailable
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		attempts := 0
		_, err := retry(ctx, fastRetry(), "test", func() (int, error) {
			attempts++
			return 0, errUnavailable
		})
		assert.ErrorIs(t, err, errUnavailable)
		assert.Equal(t, 3, attempts)
	})

	t.Run("missing document is permanent", func(t *testing.T) {
		attempts := 0
		_, err := retry(ctx, fastRetry(), "test", func() (int, error) {
			attempts++
			return 0, remote.ErrNoDocument
		})
		assert.ErrorIs(t, err, remote.ErrNoDocument)
		assert.Equal(t, 1, attempts)
	})

	t.Run("corrupt document is permanent", func(t *testing.T) {
		attempts := 0
		_, err := retry(ctx, fastRetry(), "test", func() (int, error) {
			attempts++
			return 0, fmt.Errorf("failed to unmarshal document: %w", remote.ErrCorrupt)
		})
		assert.ErrorIs(t, err, remote.ErrCorrupt)
		assert.Equal(t, 1, attempts)
	})

	t.Run("no retry policy makes one attempt", func(t *testing.T) {
		attempts := 0
		_, err := retry(ctx, NoRetry(), "test", func() (int, error) {
			attempts++
			return 0, errUnavailable
		})
		assert.ErrorIs(t, err, errUnavailable)
		assert.Equal(t, 1, attempts)
	})
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Code
	}{
		{name: "missing document", err: remote.ErrNoDocument, want: apperr.CodeNotFound},
		{name: "wrapped missing document", err: errors.Join(errors.New("get"), remote.ErrNoDocument), want: apperr.CodeNotFound},
		{name: "backend failure", err: errUnavailable, want: apperr.CodeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.CodeOf(storeError("op", "id", tt.err)))
		})
	}
}

func TestReadsRetriedAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	posts := NewPostRepository(store, alice, fastRetry())

	created, err := posts.Create(ctx, draft("Hello", "World"))
	require.NoError(t, err)

	store.FailOn(mock.OpGet, errUnavailable)
	got, err := posts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 2, store.Calls(mock.OpGet))

	store.FailOn(mock.OpQuery, errUnavailable, errUnavailable, errUnavailable)
	_, err = posts.ListAll(ctx)
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.Equal(t, 3, store.Calls(mock.OpQuery))
}

func TestCorruptReadNotRetried(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	posts := NewPostRepository(store, alice, fastRetry())

	created, err := posts.Create(ctx, draft("Hello", "World"))
	require.NoError(t, err)

	store.FailOn(mock.OpGet, fmt.Errorf("post %s: %w", created.ID, remote.ErrCorrupt))
	_, err = posts.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.Equal(t, 1, store.Calls(mock.OpGet))
}

func TestCreateReusesKeyOfDeletedPost(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	gone, err := store.Insert(ctx, PostsCollection, remote.Fields{"title": "gone"}, remote.WithIdempotencyKey("req-1"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, PostsCollection, gone.ID))

	attempts := 0
	doc, err := retry(ctx, fastRetry(), "test", func() (*remote.Document, error) {
		attempts++
		return store.Insert(ctx, PostsCollection, remote.Fields{"title": "fresh"}, remote.WithIdempotencyKey("req-1"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.NotEqual(t, gone.ID, doc.ID)
	assert.Equal(t, "fresh", doc.Fields["title"])
}
