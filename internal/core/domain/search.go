package domain

import (
	"strings"
	"unicode/utf8"
)

type SearchScope string

const (
	ScopeAll   SearchScope = "all"
	ScopePost  SearchScope = "post"
	ScopeVideo SearchScope = "video"
	ScopeReel  SearchScope = "reel"
)

const MaxQueryLength = 100

func ParseScope(raw string) (SearchScope, error) {
	s := SearchScope(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopePost, ScopeVideo, ScopeReel:
		return s, nil
	}
	return "", Invalid("scope", "unknown search scope")
}

// Kinds restricts candidates; nil means every kind.
func (s SearchScope) Kinds() []Kind {
	switch s {
	case ScopePost:
		return []Kind{KindPost}
	case ScopeVideo:
		return []Kind{KindLinkedVideo, KindUploadedVideo}
	case ScopeReel:
		return []Kind{KindReel}
	}
	return nil
}

// Privileged lists the kinds that earn the second priority rung in this scope.
func (s SearchScope) Privileged() []Kind {
	switch s {
	case ScopeVideo:
		return []Kind{KindLinkedVideo, KindUploadedVideo}
	case ScopeReel:
		return []Kind{KindReel}
	}
	return nil
}

// NormalizeQuery trims the term and enforces the length bounds.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", Invalid("query", "required")
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", Invalid("query", "too long")
	}
	return q, nil
}

// SearchQuery asks the store for one ranked page of matches. The store
// orders by the full RankingKey before it cuts the page.
type SearchQuery struct {
	Term       string
	Kinds      []Kind // nil means every kind
	Privileged []Kind // kinds that earn PriorityPrivileged
	LikeWeight int64
	Offset     int
	Limit      int
}

// ListQuery drives the recency-ordered listings (home feed, creator page).
type ListQuery struct {
	AuthorID string
	Kind     Kind
	Offset   int
	Limit    int
}
