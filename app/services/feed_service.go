package services

import (
	"context"
	"strings"
	"sync"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/repositories"
	"blogsync/app/session"
	"blogsync/app/snapshot"

	"golang.org/x/text/cases"
)

// Summary is a post as shown in a listing.
type Summary struct {
	Post        *models.Post
	Excerpt     string
	ReadingTime int
	Likes       int
	Comments    int
	Liked       bool
	Editable    bool
}

// FeedService backs the home listing and the author's own listing
type FeedService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	sessions session.Source
	view     *snapshot.View[*models.Post]

	mutex  sync.RWMutex
	counts map[string]int
}

// NewFeedService creates a new FeedService
func NewFeedService(posts repositories.PostRepository, comments repositories.CommentRepository, sessions session.Source) *FeedService {
	return &FeedService{
		posts:    posts,
		comments: comments,
		sessions: sessions,
		view:     snapshot.NewView[*models.Post](),
		counts:   map[string]int{},
	}
}

// Open fetches every post and the comment counts.
func (s *FeedService) Open(ctx context.Context) error {
	return s.load(ctx, s.posts.ListAll)
}

// OpenMine fetches only the posts written by the current session, filtered
// by the store, and the comment counts.
func (s *FeedService) OpenMine(ctx context.Context) error {
	current := s.sessions.Current()
	if !current.Authenticated() {
		return apperr.Unauthenticated("feed.mine")
	}
	return s.load(ctx, func(ctx context.Context) ([]*models.Post, error) {
		return s.posts.ListByAuthor(ctx, current.UserID)
	})
}

func (s *FeedService) load(ctx context.Context, fetch func(context.Context) ([]*models.Post, error)) error {
	if err := s.view.Load(ctx, fetch); err != nil {
		return err
	}
	counts, err := s.comments.CountByPost(ctx)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.counts = counts
	s.mutex.Unlock()
	return nil
}

// Posts returns the loaded posts, most recent first.
func (s *FeedService) Posts() []*models.Post {
	return s.view.Snapshot().Items()
}

// Search returns the loaded posts whose title, content or author contains
// query, ignoring case. An empty query matches everything.
func (s *FeedService) Search(query string) []*models.Post {
	posts := s.Posts()
	query = strings.TrimSpace(query)
	if query == "" {
		return posts
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []*models.Post
	for _, p := range posts {
		for _, field := range []string{p.Title, p.Content, p.Author} {
			if strings.Contains(fold.String(field), needle) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Summaries decorates posts for display.
func (s *FeedService) Summaries(posts []*models.Post) []Summary {
	current := s.sessions.Current()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Summary, 0, len(posts))
	for _, p := range posts {
		out = append(out, Summary{
			Post:        p,
			Excerpt:     p.Excerpt(models.ExcerptLength),
			ReadingTime: p.ReadingTime(),
			Likes:       p.LikeCount(),
			Comments:    s.counts[p.ID],
			Liked:       p.LikedBy(current.UserID),
			Editable:    p.OwnedBy(current.UserID),
		})
	}
	return out
}

// Create publishes a post and shows it at the top of the listing.
func (s *FeedService) Create(ctx context.Context, draft models.PostDraft) (*models.Post, error) {
	return snapshot.Mutate(ctx, s.view.Snapshot(), "feed.create",
		func(ctx context.Context) (*models.Post, error) {
			return s.posts.Create(ctx, draft)
		}, snapshot.Upserted[*models.Post])
}

// ToggleLike flips the current user's like and shows the confirmed set.
func (s *FeedService) ToggleLike(ctx context.Context, id string) (*models.Post, error) {
	return snapshot.Mutate(ctx, s.view.Snapshot(), "feed.toggle_like",
		func(ctx context.Context) (*models.Post, error) {
			return s.posts.ToggleLike(ctx, id)
		}, snapshot.Upserted[*models.Post])
}

// Delete removes a post from the store and then from the listing.
func (s *FeedService) Delete(ctx context.Context, id string) error {
	_, err := snapshot.Mutate(ctx, s.view.Snapshot(), "feed.delete",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.posts.Delete(ctx, id)
		}, snapshot.Removed[*models.Post, struct{}](id))
	return err
}

// Close detaches the listing. Responses still in flight are dropped.
func (s *FeedService) Close() {
	s.view.Close()
}
