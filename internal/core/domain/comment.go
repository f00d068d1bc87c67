package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxCommentLength = 1000

// Comment is a reply under one content item. Only its author may delete it.
type Comment struct {
	ID             string
	ContentID      string
	AuthorID       string
	AuthorUsername string
	Text           string
	CreatedAt      time.Time
}

func NewComment(authorID, contentID, text string) (*Comment, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, Invalid("content_id", "required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Invalid("comment", "required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, Invalid("comment", "too long")
	}
	return &Comment{
		ID:        uuid.NewString(),
		ContentID: contentID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CommentQuery drives the newest-first comment listing of one item.
type CommentQuery struct {
	ContentID string
	Offset    int
	Limit     int
}

type CommentPage struct {
	Items []*Comment
	Meta  PageMeta
}
