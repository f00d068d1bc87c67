package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPost          Kind = "post"
	KindLinkedVideo   Kind = "linked_video"
	KindUploadedVideo Kind = "uploaded_video"
	KindReel          Kind = "reel"
)

const (
	MaxTitleLength = 100
)

// Valid reports whether k is one of the fixed content kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindLinkedVideo, KindUploadedVideo, KindReel:
		return true
	}
	return false
}

// HasEngagement is true for the video-like kinds that carry view/like counters.
func (k Kind) HasEngagement() bool {
	return k == KindLinkedVideo || k == KindUploadedVideo || k == KindReel
}

// ParseKind accepts an empty string as "no filter".
func ParseKind(raw string) (Kind, error) {
	if raw == "" {
		return "", nil
	}
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", Invalid("kind", "unknown content kind")
	}
	return k, nil
}

// --- KIND-SPECIFIC PAYLOADS ---

type VideoLink struct {
	VideoID         string
	VideoTitle      string
	Description     string
	ThumbnailURL    string
	ChannelTitle    string
	ChannelImageURL string
}

type Upload struct {
	VideoURL     string
	ThumbnailURL string
	Description  string
}

type Reel struct {
	VideoURL     string
	ThumbnailURL string
	Description  string
}

// Payload is the tagged variant attached to an item. Exactly one field is set
// for video-like kinds; a text post has none.
type Payload struct {
	VideoLink *VideoLink
	Upload    *Upload
	Reel      *Reel
}

func (p Payload) count() int {
	n := 0
	if p.VideoLink != nil {
		n++
	}
	if p.Upload != nil {
		n++
	}
	if p.Reel != nil {
		n++
	}
	return n
}

// Engagement is refreshed by an external poller; the core only reads it.
type Engagement struct {
	ViewCount int64
	LikeCount int64
}

type ContentItem struct {
	ID             string
	Kind           Kind
	Title          string
	Body           string
	BannerURL      string
	AuthorID       string
	AuthorUsername string
	Payload        Payload
	Engagement     *Engagement
	CreatedAt      time.Time
}

// NewContentItem validates the kind/payload invariant and stamps identity.
func NewContentItem(authorID string, kind Kind, title, body, banner string, payload Payload) (*ContentItem, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	if !kind.Valid() {
		return nil, Invalid("kind", "unknown content kind")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Invalid("title", "required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, Invalid("title", "too long")
	}
	if err := checkPayload(kind, payload); err != nil {
		return nil, err
	}

	item := &ContentItem{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Body:      strings.TrimSpace(body),
		BannerURL: strings.TrimSpace(banner),
		AuthorID:  authorID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if kind.HasEngagement() {
		item.Engagement = &Engagement{}
	}
	return item, nil
}

func checkPayload(kind Kind, p Payload) error {
	if kind == KindPost {
		if p.count() != 0 {
			return Invalid("payload", "a text post carries no media metadata")
		}
		return nil
	}
	if p.count() != 1 {
		return Invalid("payload", "exactly one media payload is required")
	}
	switch kind {
	case KindLinkedVideo:
		if p.VideoLink == nil || p.VideoLink.VideoID == "" {
			return Invalid("payload", "video link requires video_id")
		}
	case KindUploadedVideo:
		if p.Upload == nil || p.Upload.VideoURL == "" {
			return Invalid("payload", "upload requires video_url")
		}
	case KindReel:
		if p.Reel == nil || p.Reel.VideoURL == "" {
			return Invalid("payload", "reel requires video_url")
		}
	}
	return nil
}
