package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// handleError translates driver errors into domain errors.
// Nothing above the repository should ever see a pgx type.
func handleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("db: %w", domain.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("db: %w", domain.ErrCanceled)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return domain.ErrConflict
		case pgErr.Code == "23503": // foreign_key_violation: the target is gone
			return domain.ErrNotFound
		case pgErr.Code == "22P02": // invalid_text_representation: not a uuid, cannot exist
			return domain.ErrNotFound
		case pgErr.Code == "23514": // check_violation
			return domain.Invalid(pgErr.ConstraintName, "rejected by store")
		case pgErr.Code == "57014": // query_canceled (statement_timeout)
			return fmt.Errorf("db: %w", domain.ErrTimeout)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), strings.HasPrefix(pgErr.Code, "57P"):
			// connection exception, insufficient resources, operator intervention
			return fmt.Errorf("db %s: %w", pgErr.Code, domain.ErrUpstreamUnavailable)
		}
		return fmt.Errorf("db %s: %s", pgErr.Code, pgErr.Message)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("db: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	return fmt.Errorf("db: %w", err)
}

// isInfraFailure decides what counts against the circuit breaker.
// Domain outcomes (not found, conflict...) are answers, not failures.
func isInfraFailure(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrTimeout)
}
