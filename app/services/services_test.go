package services

import (
	"context"
	"testing"

	"blogsync/app/models"
	"blogsync/app/remote/mock"
	"blogsync/app/repositories"
	"blogsync/app/session"

	"github.com/stretchr/testify/require"
)

var (
	alice = session.Static{UserID: "u1", Email: "alice@example.com"}
	bob   = session.Static{UserID: "u2", Email: "bob@example.com"}
)

// fixture wires real repositories to an in-memory store for one session.
type fixture struct {
	store    *mock.Store
	sessions session.Source
	posts    repositories.PostRepository
	comments repositories.CommentRepository
}

func newFixture(store *mock.Store, sessions session.Source) *fixture {
	return &fixture{
		store:    store,
		sessions: sessions,
		posts:    repositories.NewPostRepository(store, sessions, repositories.NoRetry()),
		comments: repositories.NewCommentRepository(store, sessions, repositories.NoRetry()),
	}
}

func (f *fixture) feed() *FeedService {
	return NewFeedService(f.posts, f.comments, f.sessions)
}

func (f *fixture) detail(id string) *PostService {
	return NewPostService(id, f.posts, f.comments, f.sessions)
}

func (f *fixture) publish(t *testing.T, title, content string) *models.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), models.PostDraft{Title: title, Content: content})
	require.NoError(t, err)
	return p
}

func (f *fixture) comment(t *testing.T, blogID, content string) *models.Comment {
	t.Helper()
	c, err := f.comments.Create(context.Background(), blogID, content)
	require.NoError(t, err)
	return c
}
