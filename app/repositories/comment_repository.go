package repositories

import (
	"context"
	"time"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/remote"
	"blogsync/app/session"

	"github.com/google/uuid"
)

// RemoteCommentRepository implements CommentRepository against the remote store
type RemoteCommentRepository struct {
	store    remote.Store
	sessions session.Source
	reads    RetryPolicy
}

// NewCommentRepository creates a new RemoteCommentRepository
func NewCommentRepository(store remote.Store, sessions session.Source, reads RetryPolicy) *RemoteCommentRepository {
	return &RemoteCommentRepository{store: store, sessions: sessions, reads: reads}
}

// ListForPost returns the comments attached to blogID, most recent first.
// The store is asked for an equality match only and the result is ordered
// here.
func (r *RemoteCommentRepository) ListForPost(ctx context.Context, blogID string) ([]*models.Comment, error) {
	const op = "comments.list_for_post"
	docs, err := retry(ctx, r.reads, op, func() ([]*remote.Document, error) {
		return r.store.Query(ctx, CommentsCollection, remote.Where("blogId", blogID))
	})
	if err != nil {
		return nil, storeError(op, blogID, err)
	}
	comments, err := r.decodeAll(op, docs)
	if err != nil {
		return nil, err
	}
	sortComments(comments)
	return comments, nil
}

// CountByPost returns the number of comments per blogId from a single scan.
// Posts without comments are absent from the map.
func (r *RemoteCommentRepository) CountByPost(ctx context.Context) (map[string]int, error) {
	const op = "comments.count_by_post"
	docs, err := retry(ctx, r.reads, op, func() ([]*remote.Document, error) {
		return r.store.Query(ctx, CommentsCollection, remote.Query{})
	})
	if err != nil {
		return nil, storeError(op, "", err)
	}
	counts := make(map[string]int)
	for _, doc := range docs {
		if blogID, ok := doc.Fields["blogId"].(string); ok {
			counts[blogID]++
		}
	}
	return counts, nil
}

// GetByID retrieves a comment by ID
func (r *RemoteCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "comments.get"
	doc, err := retry(ctx, r.reads, op, func() (*remote.Document, error) {
		return r.store.Get(ctx, CommentsCollection, id)
	})
	if err != nil {
		return nil, storeError(op, id, err)
	}
	comment, err := decodeComment(doc)
	if err != nil {
		return nil, storeError(op, id, err)
	}
	return comment, nil
}

// Create attaches a comment by the current session to blogID. The post is
// not checked for existence.
func (r *RemoteCommentRepository) Create(ctx context.Context, blogID, content string) (*models.Comment, error) {
	const op = "comments.create"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return nil, apperr.Unauthenticated(op)
	}
	if blogID == "" {
		return nil, apperr.Validation(op, "blogId", "failed required")
	}
	content, err := models.NormalizeCommentContent(content)
	if err != nil {
		return nil, validationError(op, err)
	}

	fields := remote.Fields{
		"blogId":    blogID,
		"content":   content,
		"author":    s.Email,
		"authorId":  s.UserID,
		"createdAt": remote.ServerTimestamp,
	}
	key := uuid.NewString()
	doc, err := retry(ctx, r.reads, op, func() (*remote.Document, error) {
		return r.store.Insert(ctx, CommentsCollection, fields, remote.WithIdempotencyKey(key))
	})
	if err != nil {
		return nil, storeError(op, "", err)
	}
	comment, err := decodeComment(doc)
	if err != nil {
		return nil, storeError(op, doc.ID, err)
	}
	return comment, nil
}

// Update replaces the content of a comment owned by the current session
func (r *RemoteCommentRepository) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	const op = "comments.update"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return nil, apperr.Unauthenticated(op)
	}
	content, err := models.NormalizeCommentContent(content)
	if err != nil {
		return nil, validationError(op, err)
	}
	if _, err := r.owned(ctx, op, id, s); err != nil {
		return nil, err
	}

	doc, err := r.store.Update(ctx, CommentsCollection, id, remote.Fields{
		"content":   content,
		"updatedAt": remote.ServerTimestamp,
	})
	if err != nil {
		return nil, storeError(op, id, err)
	}
	comment, err := decodeComment(doc)
	if err != nil {
		return nil, storeError(op, id, err)
	}
	return comment, nil
}

// Delete removes a comment owned by the current session
func (r *RemoteCommentRepository) Delete(ctx context.Context, id string) error {
	const op = "comments.delete"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return apperr.Unauthenticated(op)
	}
	if _, err := r.owned(ctx, op, id, s); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, CommentsCollection, id); err != nil {
		return storeError(op, id, err)
	}
	return nil
}

func (r *RemoteCommentRepository) owned(ctx context.Context, op, id string, s session.Session) (*models.Comment, error) {
	comment, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !comment.OwnedBy(s.UserID) {
		return nil, apperr.Forbidden(op, id)
	}
	return comment, nil
}

func (r *RemoteCommentRepository) decodeAll(op string, docs []*remote.Document) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0, len(docs))
	for _, doc := range docs {
		comment, err := decodeComment(doc)
		if err != nil {
			return nil, storeError(op, doc.ID, err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func sortComments(comments []*models.Comment) {
	newestFirst(comments,
		func(c *models.Comment) time.Time { return c.CreatedAt },
		func(c *models.Comment) string { return c.ID })
}
