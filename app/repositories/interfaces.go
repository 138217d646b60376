package repositories

import (
	"context"

	"blogsync/app/models"
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, draft models.PostDraft) (*models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*models.Post, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	ListForPost(ctx context.Context, blogID string) ([]*models.Comment, error)
	CountByPost(ctx context.Context) (map[string]int, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, blogID, content string) (*models.Comment, error)
	Update(ctx context.Context, id, content string) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}
