package services

import (
	"context"
	"testing"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/remote/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentIDs(comments []*models.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func TestPostServiceOpen(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	a, b := newFixture(store, alice), newFixture(store, bob)
	post := a.publish(t, "Hello", "First line\n\nSecond line")
	c1 := b.comment(t, post.ID, "one")
	b.comment(t, "other", "elsewhere")
	c2 := b.comment(t, post.ID, "two")

	page := b.detail(post.ID)
	require.NoError(t, page.Open(ctx))

	got, ok := page.Post()
	require.True(t, ok)
	assert.Equal(t, []string{"First line", "Second line"}, got.Paragraphs())
	assert.Equal(t, []string{c2.ID, c1.ID}, commentIDs(page.Comments()))
	assert.False(t, page.CanEdit())

	owner := a.detail(post.ID)
	require.NoError(t, owner.Open(ctx))
	assert.True(t, owner.CanEdit())
}

func TestPostServiceNotFound(t *testing.T) {
	ctx := context.Background()
	page := newFixture(mock.NewStore(), alice).detail("missing")

	err := page.Open(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, ok := page.Post()
	assert.False(t, ok)
	assert.False(t, page.CanEdit())

	_, err = page.Edit(ctx, models.PostPatch{Title: "a", Content: "b"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostServiceEditAndLike(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	a, b := newFixture(store, alice), newFixture(store, bob)
	post := a.publish(t, "Hello", "World")

	owner := a.detail(post.ID)
	require.NoError(t, owner.Open(ctx))
	reader := b.detail(post.ID)
	require.NoError(t, reader.Open(ctx))

	edited, err := owner.Edit(ctx, models.PostPatch{Title: "Hello again", Content: "World"})
	require.NoError(t, err)
	got, _ := owner.Post()
	assert.Equal(t, edited, got)
	assert.NotNil(t, got.UpdatedAt)

	_, err = reader.Edit(ctx, models.PostPatch{Title: "Hijack", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	got, _ = reader.Post()
	assert.Equal(t, "Hello", got.Title)

	_, err = reader.ToggleLike(ctx)
	require.NoError(t, err)
	got, _ = reader.Post()
	assert.True(t, got.LikedBy(bob.UserID))
	require.NoError(t, reader.Open(ctx))
	got, _ = reader.Post()
	assert.Equal(t, "Hello again", got.Title)
	assert.Equal(t, []string{bob.UserID}, got.Likes)

	_, err = reader.ToggleLike(ctx)
	require.NoError(t, err)
	got, _ = reader.Post()
	assert.Empty(t, got.Likes)
}

func TestPostServiceDelete(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	a, b := newFixture(store, alice), newFixture(store, bob)
	post := a.publish(t, "Hello", "World")
	b.comment(t, post.ID, "nice")

	reader := b.detail(post.ID)
	require.NoError(t, reader.Open(ctx))
	assert.ErrorIs(t, reader.Delete(ctx), apperr.ErrForbidden)
	_, ok := reader.Post()
	assert.True(t, ok)

	owner := a.detail(post.ID)
	require.NoError(t, owner.Open(ctx))
	require.NoError(t, owner.Delete(ctx))
	_, ok = owner.Post()
	assert.False(t, ok)
	assert.Equal(t, 1, store.Count("comments"))
}

func TestPostServiceComments(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	a, b := newFixture(store, alice), newFixture(store, bob)
	post := a.publish(t, "Hello", "World")
	theirs := a.comment(t, post.ID, "author reply")

	page := b.detail(post.ID)
	require.NoError(t, page.Open(ctx))

	added, err := page.AddComment(ctx, "  first!  ")
	require.NoError(t, err)
	assert.Equal(t, "first!", added.Content)
	assert.Equal(t, []string{added.ID, theirs.ID}, commentIDs(page.Comments()))

	t.Run("whitespace comment is rejected locally", func(t *testing.T) {
		calls := store.TotalCalls()
		before := page.Comments()
		_, err := page.AddComment(ctx, " \t\n")
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, calls, store.TotalCalls())
		assert.Equal(t, before, page.Comments())
	})

	t.Run("edit in place", func(t *testing.T) {
		edited, err := page.EditComment(ctx, added.ID, "first, edited")
		require.NoError(t, err)
		comments := page.Comments()
		assert.Equal(t, []string{added.ID, theirs.ID}, commentIDs(comments))
		assert.Equal(t, edited, comments[0])
		assert.Equal(t, "first, edited", comments[0].Content)
	})

	t.Run("cannot edit another user's comment", func(t *testing.T) {
		_, err := page.EditComment(ctx, theirs.ID, "changed")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		assert.Equal(t, "author reply", page.Comments()[1].Content)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, page.DeleteComment(ctx, added.ID))
		assert.Equal(t, []string{theirs.ID}, commentIDs(page.Comments()))
		assert.ErrorIs(t, page.DeleteComment(ctx, theirs.ID), apperr.ErrForbidden)
		assert.Len(t, page.Comments(), 1)
	})
}
