package models

import "time"

// Post represents a blog post. Likes holds the ids of users who liked it.
type Post struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title" validate:"notblank,max=200"`
	Content   string     `json:"content" validate:"notblank"`
	Author    string     `json:"author"`
	AuthorID  string     `json:"authorId" validate:"required"`
	Likes     []string   `json:"likes" validate:"unique"`
	CreatedAt time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Comment represents a comment on a blog post. BlogID references Post.ID.
type Comment struct {
	ID        string     `json:"id" validate:"required"`
	BlogID    string     `json:"blogId" validate:"required"`
	Content   string     `json:"content" validate:"notblank,max=1000"`
	Author    string     `json:"author"`
	AuthorID  string     `json:"authorId" validate:"required"`
	CreatedAt time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PostDraft carries the fields a user supplies when publishing a post.
type PostDraft struct {
	Title   string `validate:"notblank,max=200"`
	Content string `validate:"notblank"`
}

// PostPatch carries the only fields that may change after publishing.
type PostPatch struct {
	Title   string `validate:"notblank,max=200"`
	Content string `validate:"notblank"`
}

// Key returns the post's document id.
func (p *Post) Key() string { return p.ID }

// Created returns the post's creation time.
func (p *Post) Created() time.Time { return p.CreatedAt }

// Key returns the comment's document id.
func (c *Comment) Key() string { return c.ID }

// Created returns the comment's creation time.
func (c *Comment) Created() time.Time { return c.CreatedAt }
