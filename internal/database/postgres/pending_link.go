package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/banklink/internal/domain"
)

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PendingLinkRepository implements linking.Repository on PostgreSQL.
type PendingLinkRepository struct {
	db  querier
	now func() time.Time
}

// NewPendingLinkRepository creates a new pending link repository
func NewPendingLinkRepository(db *pgxpool.Pool) *PendingLinkRepository {
	return &PendingLinkRepository{db: db, now: time.Now}
}

// SavePendingLink inserts or replaces the link for its attempt id.
func (r *PendingLinkRepository) SavePendingLink(ctx context.Context, link domain.PendingLink) error {
	if link.AttemptID == "" {
		return domain.ErrAttemptIDMissing
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = r.now()
	}
	query := `
		INSERT INTO pending_links (attempt_id, partner, currency, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (attempt_id) DO UPDATE
		SET partner = EXCLUDED.partner,
		    currency = EXCLUDED.currency,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Exec(ctx, query,
		link.AttemptID,
		string(link.Partner),
		link.Currency,
		link.CreatedAt,
		link.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", ErrMsgFailedToSavePendingLink, domain.ErrDatabaseError, err)
	}
	return nil
}

// GetPendingLink returns the unexpired link for attemptID.
func (r *PendingLinkRepository) GetPendingLink(ctx context.Context, attemptID string) (domain.PendingLink, error) {
	query := `
		SELECT attempt_id, partner, currency, created_at, expires_at
		FROM pending_links
		WHERE attempt_id = $1 AND expires_at > $2
	`
	var (
		link    domain.PendingLink
		partner string
	)
	err := r.db.QueryRow(ctx, query, attemptID, r.now()).Scan(
		&link.AttemptID,
		&partner,
		&link.Currency,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PendingLink{}, fmt.Errorf("%w: %s", domain.ErrPendingLinkNotFound, attemptID)
	}
	if err != nil {
		return domain.PendingLink{}, fmt.Errorf("%s: %w: %w", ErrMsgFailedToGetPendingLink, domain.ErrDatabaseError, err)
	}
	link.Partner = domain.Partner(partner)
	return link, nil
}

// DeletePendingLink removes the link for attemptID. Missing rows are not an error.
func (r *PendingLinkRepository) DeletePendingLink(ctx context.Context, attemptID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM pending_links WHERE attempt_id = $1`, attemptID); err != nil {
		return fmt.Errorf("%s: %w: %w", ErrMsgFailedToDeletePendingLink, domain.ErrDatabaseError, err)
	}
	return nil
}

// CleanupExpired removes links whose expiry has passed and returns how many were removed.
func (r *PendingLinkRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_links WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", ErrMsgFailedToCleanupPendingLinks, domain.ErrDatabaseError, err)
	}
	return tag.RowsAffected(), nil
}
