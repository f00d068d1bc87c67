package services

import (
	"math"
	"time"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// Settings are the tunables of the feed pipeline. main maps them from config.
type Settings struct {
	DefaultPageSize  int
	DensePageSize    int // reel-scoped listings
	MaxPageSize      int
	LikeWeight       int64
	ReadRetryBackoff time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPageSize:  10,
		DensePageSize:    30,
		MaxPageSize:      100,
		LikeWeight:       2,
		ReadRetryBackoff: 100 * time.Millisecond,
	}
}

// resolvePage turns the caller's request into a concrete (page, size).
// Oversized requests are clamped, never rejected. A page whose offset would
// not fit in an int is out of range before any store is asked.
func (s Settings) resolvePage(req domain.PageRequest, dense bool) (int, int, error) {
	page := req.Page
	if req.Token != "" {
		p, err := domain.DecodePageToken(req.Token)
		if err != nil {
			return 0, 0, err
		}
		page = p
	}
	switch {
	case page == 0:
		page = 1
	case page < 0:
		return 0, 0, domain.Invalid("page", "must be positive")
	}

	size := req.PageSize
	switch {
	case size < 0:
		return 0, 0, domain.Invalid("page_size", "must be positive")
	case size == 0 && dense:
		size = s.DensePageSize
	case size == 0:
		size = s.DefaultPageSize
	}
	if size > s.MaxPageSize {
		size = s.MaxPageSize
	}
	if page-1 > math.MaxInt/size {
		return 0, 0, domain.Invalid("page", "page out of range")
	}
	return page, size, nil
}

func offset(page, size int) int {
	return (page - 1) * size
}
