package services

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// RelevanceScorer assigns search ranking keys. It is pure: same input, same key.
// The content store ranks in SQL with the same ladder; this is the reference
// its results are checked against.
type RelevanceScorer struct {
	likeWeight int64
}

func NewRelevanceScorer(likeWeight int64) *RelevanceScorer {
	return &RelevanceScorer{likeWeight: likeWeight}
}

func (s *RelevanceScorer) LikeWeight() int64 {
	return s.likeWeight
}

// TrendingScore is likeWeight*likes + views for items with engagement metadata, else 0.
func (s *RelevanceScorer) TrendingScore(item *domain.ContentItem) int64 {
	if !item.Kind.HasEngagement() || item.Engagement == nil {
		return 0
	}
	return s.likeWeight*item.Engagement.LikeCount + item.Engagement.ViewCount
}

// Score evaluates the priority ladder for one item. term must already be folded.
func (s *RelevanceScorer) Score(item *domain.ContentItem, term string, privileged []domain.Kind) domain.RankingKey {
	return domain.RankingKey{
		Priority:      priority(item, term, privileged),
		TrendingScore: s.TrendingScore(item),
		CreatedAt:     item.CreatedAt,
	}
}

// Rank scores and sorts candidates; the result order is total.
func (s *RelevanceScorer) Rank(items []*domain.ContentItem, query string, privileged []domain.Kind) []domain.Ranked {
	term := fold(query)
	ranked := make([]domain.Ranked, len(items))
	for i, item := range items {
		ranked[i] = domain.Ranked{Item: item, Key: s.Score(item, term, privileged)}
	}
	slices.SortStableFunc(ranked, domain.CompareRanked)
	return ranked
}

func priority(item *domain.ContentItem, term string, privileged []domain.Kind) int {
	switch {
	case contains(item.Title, term):
		return domain.PriorityTitle
	case slices.Contains(privileged, item.Kind):
		return domain.PriorityPrivileged
	case contains(item.AuthorUsername, term):
		return domain.PriorityAuthor
	case contains(item.Body, term):
		return domain.PriorityBody
	}
	return domain.PriorityNone
}

func contains(field, term string) bool {
	if field == "" || term == "" {
		return false
	}
	return strings.Contains(fold(field), term)
}

// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
