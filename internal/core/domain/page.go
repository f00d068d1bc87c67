package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// PageRequest is what the caller asked for. Zero values mean "use defaults".
type PageRequest struct {
	Page     int
	PageSize int
	Token    string
}

// PageMeta is returned alongside every listing.
type PageMeta struct {
	TotalCount    int
	CurrentPage   int
	TotalPages    int
	PageSize      int
	NextToken     string
	PreviousToken string
}

type FeedPage struct {
	Items []*ContentItem
	Meta  PageMeta
}

const tokenPrefix = "p:"

// EncodePageToken produces the opaque forward/backward token for a page number.
func EncodePageToken(page int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.Itoa(page)))
}

// DecodePageToken is strict: a corrupted token is a validation failure, not page 1.
func DecodePageToken(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, Invalid("page_token", "malformed")
	}
	s := string(raw)
	if !strings.HasPrefix(s, tokenPrefix) {
		return 0, Invalid("page_token", "malformed")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, tokenPrefix))
	if err != nil || n < 1 {
		return 0, Invalid("page_token", "malformed")
	}
	return n, nil
}

// NewPageMeta computes totals and tokens. An empty listing still has one page.
func NewPageMeta(total, page, size int) PageMeta {
	pages := 1
	if total > 0 {
		pages = (total + size - 1) / size
	}
	meta := PageMeta{
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  pages,
		PageSize:    size,
	}
	if page < pages {
		meta.NextToken = EncodePageToken(page + 1)
	}
	if page > 1 {
		meta.PreviousToken = EncodePageToken(page - 1)
	}
	return meta
}
