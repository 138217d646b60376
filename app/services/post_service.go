package services

import (
	"context"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/repositories"
	"blogsync/app/session"
	"blogsync/app/snapshot"
)

// PostService backs the detail page of a single post and its comments
type PostService struct {
	id       string
	posts    repositories.PostRepository
	sessions session.Source
	post     *snapshot.View[*models.Post]
	thread   *CommentService
}

// NewPostService creates a new PostService for the post with id
func NewPostService(id string, posts repositories.PostRepository, comments repositories.CommentRepository, sessions session.Source) *PostService {
	return &PostService{
		id:       id,
		posts:    posts,
		sessions: sessions,
		post:     snapshot.NewView[*models.Post](),
		thread:   NewCommentService(id, comments, sessions),
	}
}

// Open loads the post and its comments. A missing post is reported as
// apperr.ErrNotFound and leaves the page empty.
func (s *PostService) Open(ctx context.Context) error {
	err := s.post.Load(ctx, func(ctx context.Context) ([]*models.Post, error) {
		p, err := s.posts.GetByID(ctx, s.id)
		if err != nil {
			return nil, err
		}
		return []*models.Post{p}, nil
	})
	if err != nil {
		return err
	}
	return s.thread.Open(ctx)
}

// Post returns the loaded post.
func (s *PostService) Post() (*models.Post, bool) {
	return s.post.Snapshot().Get(s.id)
}

// Comments returns the loaded comments, most recent first.
func (s *PostService) Comments() []*models.Comment {
	return s.thread.Comments()
}

// CanEdit reports whether the current session wrote the post.
func (s *PostService) CanEdit() bool {
	p, ok := s.Post()
	return ok && p.OwnedBy(s.sessions.Current().UserID)
}

// Edit changes the post's title and content.
func (s *PostService) Edit(ctx context.Context, patch models.PostPatch) (*models.Post, error) {
	if _, ok := s.Post(); !ok {
		return nil, apperr.NotFound("post.edit", s.id)
	}
	return snapshot.Mutate(ctx, s.post.Snapshot(), "post.edit",
		func(ctx context.Context) (*models.Post, error) {
			return s.posts.Update(ctx, s.id, patch)
		}, snapshot.Upserted[*models.Post])
}

// ToggleLike flips the current user's like.
func (s *PostService) ToggleLike(ctx context.Context) (*models.Post, error) {
	return snapshot.Mutate(ctx, s.post.Snapshot(), "post.toggle_like",
		func(ctx context.Context) (*models.Post, error) {
			return s.posts.ToggleLike(ctx, s.id)
		}, snapshot.Upserted[*models.Post])
}

// Delete removes the post. Its comments stay in the store.
func (s *PostService) Delete(ctx context.Context) error {
	_, err := snapshot.Mutate(ctx, s.post.Snapshot(), "post.delete",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.posts.Delete(ctx, s.id)
		}, snapshot.Removed[*models.Post, struct{}](s.id))
	return err
}

// AddComment posts a comment under the post.
func (s *PostService) AddComment(ctx context.Context, content string) (*models.Comment, error) {
	return s.thread.Add(ctx, content)
}

// EditComment replaces a comment's content.
func (s *PostService) EditComment(ctx context.Context, id, content string) (*models.Comment, error) {
	return s.thread.Edit(ctx, id, content)
}

// DeleteComment removes a comment.
func (s *PostService) DeleteComment(ctx context.Context, id string) error {
	return s.thread.Delete(ctx, id)
}

// Close detaches the page.
func (s *PostService) Close() {
	s.post.Close()
	s.thread.Close()
}
