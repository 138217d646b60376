package repositories

import (
	"context"
	"strings"
	"testing"

	"blogsync/app/apperr"
	"blogsync/app/remote/mock"
	"blogsync/app/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepositoryCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("trims content and records author", func(t *testing.T) {
		store := mock.NewStore()
		comments := NewCommentRepository(store, bob, NoRetry())

		created, err := comments.Create(ctx, "p1", "  Nice post \n")
		require.NoError(t, err)
		assert.Equal(t, "Nice post", created.Content)
		assert.Equal(t, "p1", created.BlogID)
		assert.Equal(t, bob.UserID, created.AuthorID)
		assert.Equal(t, bob.Email, created.Author)
		assert.False(t, created.CreatedAt.IsZero())
		assert.NoError(t, created.Validate())
	})

	tests := []struct {
		name    string
		source  session.Source
		blogID  string
		content string
		want    error
	}{
		{name: "whitespace only", source: bob, blogID: "p1", content: "   ", want: apperr.ErrValidation},
		{name: "empty", source: bob, blogID: "p1", content: "", want: apperr.ErrValidation},
		{name: "too long", source: bob, blogID: "p1", content: strings.Repeat("x", 1001), want: apperr.ErrValidation},
		{name: "missing post id", source: bob, blogID: "", content: "hi", want: apperr.ErrValidation},
		{name: "anonymous", source: session.Anonymous, blogID: "p1", content: "hi", want: apperr.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewStore()
			_, err := NewCommentRepository(store, tt.source, NoRetry()).Create(ctx, tt.blogID, tt.content)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, store.TotalCalls())
			assert.Equal(t, 0, store.Count(CommentsCollection))
		})
	}
}

func TestCommentRepositoryListForPost(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	comments := NewCommentRepository(store, bob, NoRetry())

	first, err := comments.Create(ctx, "p1", "first")
	require.NoError(t, err)
	_, err = comments.Create(ctx, "p2", "elsewhere")
	require.NoError(t, err)
	second, err := comments.Create(ctx, "p1", "second")
	require.NoError(t, err)

	list, err := comments.ListForPost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	for _, c := range list {
		assert.Equal(t, "p1", c.BlogID)
	}

	none, err := comments.ListForPost(ctx, "p3")
	require.NoError(t, err)
	assert.Empty(t, none)

	store.FailOn(mock.OpQuery, errUnavailable)
	_, err = comments.ListForPost(ctx, "p1")
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestCommentRepositoryCountByPost(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	comments := NewCommentRepository(store, bob, NoRetry())

	for _, blogID := range []string{"p1", "p2", "p1", "p1"} {
		_, err := comments.Create(ctx, blogID, "hi")
		require.NoError(t, err)
	}
	queries := store.Calls(mock.OpQuery)

	counts, err := comments.CountByPost(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, counts)
	assert.Equal(t, queries+1, store.Calls(mock.OpQuery))
}

func TestCommentRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	mine := NewCommentRepository(store, bob, NoRetry())
	theirs := NewCommentRepository(store, alice, NoRetry())

	created, err := mine.Create(ctx, "p1", "first")
	require.NoError(t, err)

	t.Run("owner edits", func(t *testing.T) {
		updated, err := mine.Update(ctx, created.ID, " edited ")
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)
		require.NotNil(t, updated.UpdatedAt)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	})

	t.Run("blank edit rejected before the store", func(t *testing.T) {
		calls := store.TotalCalls()
		_, err := mine.Update(ctx, created.ID, "  ")
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, calls, store.TotalCalls())
	})

	t.Run("non-owner", func(t *testing.T) {
		_, err := theirs.Update(ctx, created.ID, "hijacked")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		assert.ErrorIs(t, theirs.Delete(ctx, created.ID), apperr.ErrForbidden)

		got, err := mine.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Content)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, mine.Delete(ctx, created.ID))
		_, err := mine.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCommentRepositoryAgainstBadger(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	posts := NewPostRepository(store, alice, NoRetry())
	comments := NewCommentRepository(store, bob, NoRetry())

	post, err := posts.Create(ctx, draft("Hello", "World"))
	require.NoError(t, err)
	c1, err := comments.Create(ctx, post.ID, "one")
	require.NoError(t, err)
	c2, err := comments.Create(ctx, post.ID, "two")
	require.NoError(t, err)

	list, err := comments.ListForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c2.ID, list[0].ID)
	assert.Equal(t, c1.ID, list[1].ID)

	counts, err := comments.CountByPost(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[post.ID])
}
