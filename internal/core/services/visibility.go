package services

import (
	"context"
	"errors"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

// VisibilityFilter computes what a viewer must not see.
// Hide and report affect only the viewer's own view of an item; block removes
// every item authored by the blocked user. The three sets are kept apart.
type VisibilityFilter struct {
	ledger ports.InteractionRepository
}

func NewVisibilityFilter(ledger ports.InteractionRepository) *VisibilityFilter {
	return &VisibilityFilter{ledger: ledger}
}

func (f *VisibilityFilter) ComputeExclusions(ctx context.Context, viewer domain.ViewerContext) (domain.Exclusions, error) {
	ex := domain.NewExclusions()
	if viewer.IsAnonymous() {
		return ex, nil
	}

	byKind, err := f.ledger.TargetIDs(ctx, viewer.UserID,
		domain.InteractionHide, domain.InteractionReport, domain.InteractionBlock)
	if err != nil {
		// An unknown viewer simply has nothing excluded.
		if errors.Is(err, domain.ErrNotFound) {
			return ex, nil
		}
		return ex, err
	}

	for _, id := range byKind[domain.InteractionHide] {
		ex.Hidden[id] = struct{}{}
	}
	for _, id := range byKind[domain.InteractionReport] {
		ex.Reported[id] = struct{}{}
	}
	for _, id := range byKind[domain.InteractionBlock] {
		ex.BlockedAuthors[id] = struct{}{}
	}
	return ex, nil
}
