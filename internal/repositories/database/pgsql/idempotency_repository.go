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
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

func newPgxIdempotencyRepository(pool *pgxpool.Pool) *PgxIdempotencyRepository {
	return &PgxIdempotencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.IdempotencyRepository = (*PgxIdempotencyRepository)(nil)

func (r *PgxIdempotencyRepository) GetIdempotencyRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var m models.IdempotencyRecord
	err := r.Pool.QueryRow(ctx, `
		SELECT idempotency_key, result_status, result_id, created_at, updated_at
		FROM idempotency_records WHERE idempotency_key = $1;`, key,
	).Scan(&m.Key, &m.ResultStatus, &m.ResultID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "idempotency key "+key)
	}
	rec := mapping.ToDomainIdempotencyRecord(m)
	return &rec, nil
}

// CreateIdempotencyRecord relies on ON CONFLICT so two racing callers agree on one winner.
func (r *PgxIdempotencyRepository) CreateIdempotencyRecord(ctx context.Context, record domain.IdempotencyRecord) (*domain.IdempotencyRecord, bool, error) {
	cmdTag, err := r.Pool.Exec(ctx, `
		INSERT INTO idempotency_records (idempotency_key, result_status, result_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key) DO NOTHING;`,
		record.Key, record.ResultStatus, record.ResultID, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create idempotency record %s: %w", record.Key, err)
	}
	if cmdTag.RowsAffected() == 1 {
		return &record, true, nil
	}
	stored, err := r.GetIdempotencyRecord(ctx, record.Key)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *PgxIdempotencyRepository) UpdateIdempotencyResult(ctx context.Context, key string, resultStatus string, now time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE idempotency_records SET result_status = $2, updated_at = $3 WHERE idempotency_key = $1;`,
		key, resultStatus, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update idempotency record %s: %w", key, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key %s", apperrors.ErrNotFound, key)
	}
	return nil
}
