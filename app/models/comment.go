package models

import (
	"errors"
	"strings"
)

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.UpdatedAt != nil && c.UpdatedAt.Before(c.CreatedAt) {
		return errors.New("updatedAt cannot precede createdAt")
	}
	return nil
}

// OwnedBy reports whether userID wrote the comment.
func (c *Comment) OwnedBy(userID string) bool {
	return userID != "" && c.AuthorID == userID
}

// NormalizeCommentContent trims content and rejects it when nothing is left.
func NormalizeCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	probe := struct {
		Content string `json:"content" validate:"notblank,max=1000"`
	}{content}
	if err := validateStruct(&probe); err != nil {
		return "", err
	}
	return content, nil
}
