package repositories

import (
	"context"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/remote"
)

// ToggleLike adds the current user to the post's likes, or removes them if
// already present. The change is sent as a set operation on the likes
// field, so likes recorded concurrently by other users survive.
func (r *RemotePostRepository) ToggleLike(ctx context.Context, id string) (*models.Post, error) {
	const op = "posts.toggle_like"
	s := r.sessions.Current()
	if !s.Authenticated() {
		return nil, apperr.Unauthenticated(op)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	change := remote.ArrayUnion(s.UserID)
	if current.LikedBy(s.UserID) {
		change = remote.ArrayRemove(s.UserID)
	}
	doc, err := r.store.Update(ctx, PostsCollection, id, remote.Fields{"likes": change})
	if err != nil {
		return nil, storeError(op, id, err)
	}
	post, err := decodePost(doc)
	if err != nil {
		return nil, storeError(op, id, err)
	}
	return post, nil
}
