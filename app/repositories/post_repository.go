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

// RemotePostRepository implements PostRepository against the remote store
type RemotePostRepository struct {
	store    remote.Store
	sessions session.Source
	reads    RetryPolicy
}

// NewPostRepository creates a new RemotePostRepository
func NewPostRepository(store remote.Store, sessions session.Source, reads RetryPolicy) *RemotePostRepository {
	return &RemotePostRepository{store: store, sessions: sessions, reads: reads}
}

// ListAll returns every post, most recent first
func (r *RemotePostRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	const op = "posts.list"
	docs, err := retry(ctx, r.reads, op, func() ([]*remote.Document, error) {
		return r.store.Query(ctx, PostsCollection, remote.Query{OrderBy: "createdAt", Descending: true})
	})
	if err != nil {
		return nil, storeError(op, "", err)
	}
	return r.decodeAll(op, docs)
}

// ListByAuthor returns the posts written by authorID, most recent first
func (r *RemotePostRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	const op = "posts.list_by_author"
	docs, err := retry(ctx, r.reads, op, func() ([]*remote.Document, error) {
		return r.store.Query(ctx, PostsCollection, remote.Where("authorId", authorID))
	})
	if err != nil {
		return nil, storeError(op, authorID, err)
	}
	posts, err := r.decodeAll(op, docs)
	if err != nil {
		return nil, err
	}
	sortPosts(posts)
	return posts, nil
}

// GetByID retrieves a post by ID
func (r *RemotePostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "posts.get"
	doc, err := retry(ctx, r.reads, op, func() (*remote.Document, error) {
		return r.store.Get(ctx, PostsCollection, id)
	})
	if err != nil {
		return nil, storeError(op, id, err)
	}
	post, err := decodePost(doc)
	if err != nil {
		return nil, storeError(op, id, err)
	}
	return post, nil
}

// Create publishes a new post authored by the current session
func (r *RemotePostRepository) Create(ctx context.Context, draft models.PostDraft) (*models.Post, error) {
	const op = "posts.create"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return nil, apperr.Unauthenticated(op)
	}
	if err := draft.Normalize(); err != nil {
		return nil, validationError(op, err)
	}

	fields := remote.Fields{
		"title":     draft.Title,
		"content":   draft.Content,
		"author":    s.Email,
		"authorId":  s.UserID,
		"likes":     []string{},
		"createdAt": remote.ServerTimestamp,
	}
	// The key makes the insert safe to retry after a transient failure.
	key := uuid.NewString()
	doc, err := retry(ctx, r.reads, op, func() (*remote.Document, error) {
		return r.store.Insert(ctx, PostsCollection, fields, remote.WithIdempotencyKey(key))
	})
	if err != nil {
		return nil, storeError(op, "", err)
	}
	post, err := decodePost(doc)
	if err != nil {
		return nil, storeError(op, doc.ID, err)
	}
	return post, nil
}

// Update changes the title and content of a post owned by the current session
func (r *RemotePostRepository) Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	const op = "posts.update"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return nil, apperr.Unauthenticated(op)
	}
	if err := patch.Normalize(); err != nil {
		return nil, validationError(op, err)
	}
	if _, err := r.owned(ctx, op, id, s); err != nil {
		return nil, err
	}

	doc, err := r.store.Update(ctx, PostsCollection, id, remote.Fields{
		"title":     patch.Title,
		"content":   patch.Content,
		"updatedAt": remote.ServerTimestamp,
	})
	if err != nil {
		return nil, storeError(op, id, err)
	}
	post, err := decodePost(doc)
	if err != nil {
		return nil, storeError(op, id, err)
	}
	return post, nil
}

// Delete removes a post owned by the current session. Its comments are
// left in place.
func (r *RemotePostRepository) Delete(ctx context.Context, id string) error {
	const op = "posts.delete"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return apperr.Unauthenticated(op)
	}
	if _, err := r.owned(ctx, op, id, s); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, PostsCollection, id); err != nil {
		return storeError(op, id, err)
	}
	return nil
}

// owned loads the post and checks that s wrote it.
func (r *RemotePostRepository) owned(ctx context.Context, op, id string, s session.Session) (*models.Post, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(s.UserID) {
		return nil, apperr.Forbidden(op, id)
	}
	return post, nil
}

func (r *RemotePostRepository) decodeAll(op string, docs []*remote.Document) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(docs))
	for _, doc := range docs {
		post, err := decodePost(doc)
		if err != nil {
			return nil, storeError(op, doc.ID, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func sortPosts(posts []*models.Post) {
	newestFirst(posts,
		func(p *models.Post) time.Time { return p.CreatedAt },
		func(p *models.Post) string { return p.ID })
}
