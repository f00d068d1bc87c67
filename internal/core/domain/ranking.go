package domain

import (
	"cmp"
	"time"
)

// Priority levels, lower is more relevant. First match wins.
const (
	PriorityTitle      = 1
	PriorityPrivileged = 2
	PriorityAuthor     = 3
	PriorityBody       = 4
	PriorityNone       = 5
)

// RankingKey is attached to a search candidate while it is being ordered.
type RankingKey struct {
	Priority      int
	TrendingScore int64
	CreatedAt     time.Time
}

// Ranked pairs a candidate with its key.
type Ranked struct {
	Item *ContentItem
	Key  RankingKey
}

// CompareRanked orders by priority asc, trending desc, created_at desc,
// then item id asc so equal keys still paginate reproducibly.
func CompareRanked(a, b Ranked) int {
	if c := cmp.Compare(a.Key.Priority, b.Key.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Key.TrendingScore, a.Key.TrendingScore); c != 0 {
		return c
	}
	if c := b.Key.CreatedAt.Compare(a.Key.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Item.ID, b.Item.ID)
}
