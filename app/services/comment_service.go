package services

import (
	"context"

	"blogsync/app/models"
	"blogsync/app/repositories"
	"blogsync/app/session"
	"blogsync/app/snapshot"
)

// CommentService holds the comment thread of one post
type CommentService struct {
	blogID   string
	comments repositories.CommentRepository
	sessions session.Source
	view     *snapshot.View[*models.Comment]
}

// NewCommentService creates a new CommentService for the post blogID
func NewCommentService(blogID string, comments repositories.CommentRepository, sessions session.Source) *CommentService {
	return &CommentService{
		blogID:   blogID,
		comments: comments,
		sessions: sessions,
		view:     snapshot.NewView[*models.Comment](),
	}
}

// Open fetches the thread.
func (s *CommentService) Open(ctx context.Context) error {
	return s.view.Load(ctx, func(ctx context.Context) ([]*models.Comment, error) {
		return s.comments.ListForPost(ctx, s.blogID)
	})
}

// Comments returns the loaded comments, most recent first.
func (s *CommentService) Comments() []*models.Comment {
	return s.view.Snapshot().Items()
}

// CanEdit reports whether the current session wrote the comment.
func (s *CommentService) CanEdit(c *models.Comment) bool {
	return c.OwnedBy(s.sessions.Current().UserID)
}

// Add creates a comment and prepends it to the thread.
func (s *CommentService) Add(ctx context.Context, content string) (*models.Comment, error) {
	return snapshot.Mutate(ctx, s.view.Snapshot(), "comments.add",
		func(ctx context.Context) (*models.Comment, error) {
			return s.comments.Create(ctx, s.blogID, content)
		}, snapshot.Upserted[*models.Comment])
}

// Edit replaces a comment's content in place.
func (s *CommentService) Edit(ctx context.Context, id, content string) (*models.Comment, error) {
	return snapshot.Mutate(ctx, s.view.Snapshot(), "comments.edit",
		func(ctx context.Context) (*models.Comment, error) {
			return s.comments.Update(ctx, id, content)
		}, snapshot.Upserted[*models.Comment])
}

// Delete removes a comment from the store and the thread.
func (s *CommentService) Delete(ctx context.Context, id string) error {
	_, err := snapshot.Mutate(ctx, s.view.Snapshot(), "comments.delete",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.comments.Delete(ctx, id)
		}, snapshot.Removed[*models.Comment, struct{}](id))
	return err
}

// Close detaches the thread.
func (s *CommentService) Close() {
	s.view.Close()
}
