package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.CommentRepository = (*CommentRepo)(nil)

// CommentRepo stores comments next to the content they belong to. Deleting
// an item removes its thread (ON DELETE CASCADE).
type CommentRepo struct {
	db      *pgxpool.Pool
	breaker *Breaker
}

func NewCommentRepo(db *pgxpool.Pool, breaker *Breaker) *CommentRepo {
	return &CommentRepo{db: db, breaker: breaker}
}

const selectComment = `
	SELECT m.id::text, m.content_id::text, m.author_id, COALESCE(u.username, ''), m.body, m.created_at
	FROM comments m
	LEFT JOIN users u ON u.id = m.author_id`

// Create maps a missing content item (foreign key) to domain.ErrNotFound.
func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	q := `
		INSERT INTO comments (id, content_id, author_id, body, created_at)
		VALUES (@id, @content_id, @author_id, @body, @created_at)
	`
	args := pgx.NamedArgs{
		"id":         c.ID,
		"content_id": c.ContentID,
		"author_id":  c.AuthorID,
		"body":       c.Text,
		"created_at": c.CreatedAt,
	}
	return exec(r.breaker, func() error {
		_, err := r.db.Exec(ctx, q, args)
		return handleError(err)
	})
}

func (r *CommentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	return execute(r.breaker, func() (*domain.Comment, error) {
		c, err := scanComment(r.db.QueryRow(ctx, selectComment+` WHERE m.id = $1`, id))
		return c, handleError(err)
	})
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	return exec(r.breaker, func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return handleError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

type commentPage struct {
	items []*domain.Comment
	total int
}

func (r *CommentRepo) List(ctx context.Context, q domain.CommentQuery, ex domain.Exclusions) ([]*domain.Comment, int, error) {
	where := ` WHERE m.content_id = @content_id`
	args := pgx.NamedArgs{"content_id": q.ContentID, "limit": q.Limit, "offset": q.Offset}
	if authors := ex.AuthorIDs(); len(authors) > 0 {
		where += ` AND NOT (m.author_id = ANY(@blocked_authors::text[]))`
		args["blocked_authors"] = authors
	}

	countQ := `SELECT count(*) FROM comments m` + where
	pageQ := selectComment + where + ` ORDER BY m.created_at DESC, m.id LIMIT @limit OFFSET @offset`

	res, err := execute(r.breaker, func() (commentPage, error) {
		var total int
		if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
			return commentPage{}, handleError(err)
		}
		if total == 0 || q.Offset >= total {
			return commentPage{total: total}, nil
		}
		rows, err := r.db.Query(ctx, pageQ, args)
		if err != nil {
			return commentPage{}, handleError(err)
		}
		defer rows.Close()

		items := []*domain.Comment{}
		for rows.Next() {
			c, err := scanComment(rows)
			if err != nil {
				return commentPage{}, handleError(err)
			}
			items = append(items, c)
		}
		return commentPage{items: items, total: total}, handleError(rows.Err())
	})
	if err != nil {
		return nil, 0, err
	}
	return res.items, res.total, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.ContentID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
