package models

import (
	"errors"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// ExcerptLength is the number of runes shown for a post in a listing.
const ExcerptLength = 150

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.UpdatedAt != nil && p.UpdatedAt.Before(p.CreatedAt) {
		return errors.New("updatedAt cannot precede createdAt")
	}
	return nil
}

// Normalize trims the draft's fields and validates them.
func (d *PostDraft) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	return validateStruct(d)
}

// Normalize trims the patch's fields and validates them.
func (p *PostPatch) Normalize() error {
	p.Title = strings.TrimSpace(p.Title)
	return validateStruct(p)
}

// OwnedBy reports whether userID created the post.
func (p *Post) OwnedBy(userID string) bool {
	return userID != "" && p.AuthorID == userID
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// LikeCount returns the size of the like set.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// ReadingTime estimates minutes needed to read the content.
func (p *Post) ReadingTime() int {
	words := len(strings.Fields(p.Content))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Excerpt returns at most n runes of content, followed by an ellipsis when cut.
func (p *Post) Excerpt(n int) string {
	if utf8.RuneCountInString(p.Content) <= n {
		return p.Content
	}
	runes := []rune(p.Content)
	return strings.TrimRight(string(runes[:n]), " \n") + "..."
}

// Paragraphs splits content on newlines, dropping blank lines.
func (p *Post) Paragraphs() []string {
	var out []string
	for _, line := range strings.Split(p.Content, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
