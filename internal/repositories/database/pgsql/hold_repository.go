package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
	"github.com/SscSPs/digital_bank_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const holdColumns = `hold_id, account_id, amount, currency_code, kind, reason, release_at, status,
	source_group_id, forfeit_group_id, created_at, resolved_at`

type PgxHoldRepository struct {
	BaseRepository
}

func newPgxHoldRepository(pool *pgxpool.Pool) *PgxHoldRepository {
	return &PgxHoldRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.HoldRepositoryFacade = (*PgxHoldRepository)(nil)

func scanHold(row pgx.Row) (models.Hold, error) {
	var m models.Hold
	err := row.Scan(
		&m.HoldID,
		&m.AccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.Kind,
		&m.Reason,
		&m.ReleaseAt,
		&m.Status,
		&m.SourceGroupID,
		&m.ForfeitGroupID,
		&m.CreatedAt,
		&m.ResolvedAt,
	)
	return m, err
}

func (r *PgxHoldRepository) SaveHold(ctx context.Context, hold domain.Hold) error {
	m := mapping.ToModelHold(hold)
	_, err := r.Pool.Exec(ctx, `INSERT INTO holds (`+holdColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		m.HoldID, m.AccountID, m.Amount, m.CurrencyCode, m.Kind, m.Reason, m.ReleaseAt, m.Status,
		m.SourceGroupID, m.ForfeitGroupID, m.CreatedAt, m.ResolvedAt,
	)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return fmt.Errorf("%w: hold %s already exists", apperrors.ErrDuplicate, m.HoldID)
		}
		return fmt.Errorf("failed to save hold %s: %w", m.HoldID, err)
	}
	return nil
}

func (r *PgxHoldRepository) FindHoldByID(ctx context.Context, holdID string) (*domain.Hold, error) {
	m, err := scanHold(r.Pool.QueryRow(ctx, `SELECT `+holdColumns+` FROM holds WHERE hold_id = $1;`, holdID))
	if err != nil {
		return nil, notFound(err, "hold "+holdID)
	}
	h, err := mapping.ToDomainHold(m)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PgxHoldRepository) ListActiveHoldsByAccount(ctx context.Context, accountID string) ([]domain.Hold, error) {
	return r.queryHolds(ctx, `SELECT `+holdColumns+` FROM holds
		WHERE account_id = $1 AND status = 'ACTIVE' ORDER BY created_at, hold_id;`, accountID)
}

func (r *PgxHoldRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return r.queryHolds(ctx, `SELECT `+holdColumns+` FROM holds
		WHERE status = 'ACTIVE' AND release_at IS NOT NULL AND release_at <= $1
		ORDER BY release_at, hold_id LIMIT $2;`, now, limit)
}

// UpdateHoldStatus is a compare-and-set on the status column.
func (r *PgxHoldRepository) UpdateHoldStatus(ctx context.Context, holdID string, from, to domain.HoldStatus, forfeitGroupID string, resolvedAt time.Time) error {
	var resolved *time.Time
	if to != domain.HoldActive {
		resolved = &resolvedAt
	}
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE holds
		SET status = $3,
		    forfeit_group_id = COALESCE(NULLIF($4, ''), forfeit_group_id),
		    resolved_at = $5
		WHERE hold_id = $1 AND status = $2;`,
		holdID, string(from), string(to), forfeitGroupID, resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to update hold %s: %w", holdID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.FindHoldByID(ctx, holdID); err != nil {
			return err
		}
		return fmt.Errorf("%w: hold %s is no longer %s", apperrors.ErrConcurrentModification, holdID, from)
	}
	return nil
}

func (r *PgxHoldRepository) queryHolds(ctx context.Context, query string, args ...any) ([]domain.Hold, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holds: %w", err)
	}
	defer rows.Close()

	result := []models.Hold{}
	for rows.Next() {
		m, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hold row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hold rows: %w", err)
	}
	return mapping.ToDomainHoldSlice(result)
}
