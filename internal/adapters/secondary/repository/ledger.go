package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.InteractionRepository = (*LedgerRepo)(nil)

// LedgerRepo is the interaction ledger. The two partial unique indexes on
// (actor_id, kind, target_*) are the only arbiter of duplicates: there is no
// read-then-write anywhere in here.
type LedgerRepo struct {
	db      *pgxpool.Pool
	breaker *Breaker
}

func NewLedgerRepo(db *pgxpool.Pool, breaker *Breaker) *LedgerRepo {
	return &LedgerRepo{db: db, breaker: breaker}
}

const selectInteraction = `
	SELECT id::text, actor_id, kind, target_content_id::text, target_user_id,
	       report_reason, report_description, created_at
	FROM interactions`

func (r *LedgerRepo) Create(ctx context.Context, in *domain.Interaction) error {
	q := `
		INSERT INTO interactions (id, actor_id, kind, target_content_id, target_user_id, report_reason, report_description, created_at)
		VALUES (@id, @actor_id, @kind, @target_content_id, @target_user_id, @report_reason, @report_description, @created_at)
	`
	args := pgx.NamedArgs{
		"id":                 in.ID,
		"actor_id":           in.ActorID,
		"kind":               string(in.Kind),
		"target_content_id":  nil,
		"target_user_id":     nil,
		"report_reason":      nil,
		"report_description": nil,
		"created_at":         in.CreatedAt,
	}
	if in.Target.Type == domain.TargetContent {
		args["target_content_id"] = in.Target.ID
	} else {
		args["target_user_id"] = in.Target.ID
	}
	if in.Report != nil {
		args["report_reason"] = string(in.Report.Reason)
		args["report_description"] = in.Report.Description
	}

	return exec(r.breaker, func() error {
		_, err := r.db.Exec(ctx, q, args)
		return handleError(err)
	})
}

func (r *LedgerRepo) FindByID(ctx context.Context, id string) (*domain.Interaction, error) {
	return execute(r.breaker, func() (*domain.Interaction, error) {
		in, err := scanInteraction(r.db.QueryRow(ctx, selectInteraction+` WHERE id = $1`, id))
		return in, handleError(err)
	})
}

func (r *LedgerRepo) DeleteByID(ctx context.Context, id string) error {
	return r.deleteWhere(ctx, `DELETE FROM interactions WHERE id = $1`, id)
}

func (r *LedgerRepo) DeleteByTarget(ctx context.Context, actorID string, kind domain.InteractionKind, t domain.Target) error {
	column := "target_user_id"
	if t.Type == domain.TargetContent {
		column = "target_content_id"
	}
	q := `DELETE FROM interactions WHERE actor_id = $1 AND kind = $2 AND ` + column + ` = $3`
	return r.deleteWhere(ctx, q, actorID, string(kind), t.ID)
}

func (r *LedgerRepo) deleteWhere(ctx context.Context, q string, args ...any) error {
	return exec(r.breaker, func() error {
		tag, err := r.db.Exec(ctx, q, args...)
		if err != nil {
			return handleError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *LedgerRepo) TargetIDs(ctx context.Context, actorID string, kinds ...domain.InteractionKind) (map[domain.InteractionKind][]string, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	q := `
		SELECT kind, COALESCE(target_content_id::text, target_user_id)
		FROM interactions
		WHERE actor_id = $1 AND kind = ANY($2::text[])
	`

	return execute(r.breaker, func() (map[domain.InteractionKind][]string, error) {
		rows, err := r.db.Query(ctx, q, actorID, names)
		if err != nil {
			return nil, handleError(err)
		}
		defer rows.Close()

		out := make(map[domain.InteractionKind][]string, len(kinds))
		for rows.Next() {
			var kind, target string
			if err := rows.Scan(&kind, &target); err != nil {
				return nil, handleError(err)
			}
			k := domain.InteractionKind(kind)
			out[k] = append(out[k], target)
		}
		return out, handleError(rows.Err())
	})
}

func (r *LedgerRepo) State(ctx context.Context, actorID, contentID string) (domain.InteractionState, error) {
	q := `
		SELECT kind FROM interactions
		WHERE actor_id = $1 AND target_content_id = $2 AND kind IN ('like', 'hide', 'report')
	`
	return execute(r.breaker, func() (domain.InteractionState, error) {
		var st domain.InteractionState
		rows, err := r.db.Query(ctx, q, actorID, contentID)
		if err != nil {
			return st, handleError(err)
		}
		defer rows.Close()

		for rows.Next() {
			var kind string
			if err := rows.Scan(&kind); err != nil {
				return st, handleError(err)
			}
			switch domain.InteractionKind(kind) {
			case domain.InteractionLike:
				st.Liked = true
			case domain.InteractionHide:
				st.Hidden = true
			case domain.InteractionReport:
				st.Reported = true
			}
		}
		return st, handleError(rows.Err())
	})
}

func scanInteraction(row pgx.Row) (*domain.Interaction, error) {
	var (
		in                  domain.Interaction
		kind                string
		contentID, userID   *string
		reason, description *string
	)
	if err := row.Scan(&in.ID, &in.ActorID, &kind, &contentID, &userID, &reason, &description, &in.CreatedAt); err != nil {
		return nil, err
	}

	in.Kind = domain.InteractionKind(kind)
	in.CreatedAt = in.CreatedAt.UTC()
	if contentID != nil {
		in.Target = domain.Target{Type: domain.TargetContent, ID: *contentID}
	} else if userID != nil {
		in.Target = domain.Target{Type: domain.TargetUser, ID: *userID}
	}
	if reason != nil {
		in.Report = &domain.ReportDetails{Reason: domain.ReportReason(*reason)}
		if description != nil {
			in.Report.Description = *description
		}
	}
	return &in, nil
}
