package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/remote"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang/glog"
)

const (
	// Collection names in the remote store
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

// RetryPolicy bounds the retries of idempotent calls.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy retries a read up to three times within two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        3,
		InitialInterval: 100 * time.Millisecond,
		MaxElapsed:      2 * time.Second,
	}
}

// NoRetry makes a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxTries: 1}
}

// retry repeats fn while it fails with a transient error. Only idempotent
// calls may go through here: reads, and inserts carrying an idempotency key.
func retry[T any](ctx context.Context, p RetryPolicy, op string, fn func() (T, error)) (T, error) {
	if p.MaxTries <= 1 {
		return fn()
	}
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxTries),
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !transient(err) {
			return v, backoff.Permanent(err)
		}
		glog.V(1).Infof("[repositories] %s failed, will retry: %v", op, err)
		return v, err
	}, opts...)
}

func transient(err error) bool {
	return !errors.Is(err, remote.ErrNoDocument) &&
		!errors.Is(err, remote.ErrCorrupt) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// storeError maps a store failure onto the error taxonomy and logs
// anything that is not a plain absence.
func storeError(op, id string, err error) error {
	if errors.Is(err, remote.ErrNoDocument) {
		return apperr.NotFound(op, id)
	}
	glog.Errorf("[repositories] %s %s: %v", op, id, err)
	return apperr.Transport(op, err)
}

// validationError converts a model validation failure.
func validationError(op string, err error) error {
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return apperr.Validation(op, fe.Field, "failed "+fe.Rule)
	}
	return apperr.Validation(op, "", err.Error())
}

func decodePost(doc *remote.Document) (*models.Post, error) {
	var post models.Post
	if err := doc.Decode(&post); err != nil {
		return nil, err
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = doc.CreateTime
	}
	return &post, nil
}

func decodeComment(doc *remote.Document) (*models.Comment, error) {
	var comment models.Comment
	if err := doc.Decode(&comment); err != nil {
		return nil, err
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = doc.CreateTime
	}
	return &comment, nil
}

// newestFirst orders by creation time descending, ties by id descending.
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}
