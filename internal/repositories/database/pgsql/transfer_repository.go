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

const transferColumns = `transfer_id, reference_number, transfer_type, source_account_id, destination_account_id,
	beneficiary, amount, currency_code, fee, credited_amount, credited_currency, exchange_rate, status,
	pin_attempts, otp_attempts, failure_reason, reversal_group_id, reversal_reason, narration,
	created_at, updated_at, processing_at, completed_at, reversed_at, version`

type PgxTransferRepository struct {
	BaseRepository
}

// newPgxTransferRepository creates a new repository for transfers.
func newPgxTransferRepository(pool *pgxpool.Pool) *PgxTransferRepository {
	return &PgxTransferRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransferRepositoryFacade = (*PgxTransferRepository)(nil)

func scanTransfer(row pgx.Row) (domain.Transfer, error) {
	var m models.Transfer
	err := row.Scan(
		&m.TransferID,
		&m.ReferenceNumber,
		&m.TransferType,
		&m.SourceAccountID,
		&m.DestinationAccountID,
		&m.Beneficiary,
		&m.Amount,
		&m.CurrencyCode,
		&m.Fee,
		&m.CreditedAmount,
		&m.CreditedCurrency,
		&m.ExchangeRate,
		&m.Status,
		&m.PinAttempts,
		&m.OtpAttempts,
		&m.FailureReason,
		&m.ReversalGroupID,
		&m.ReversalReason,
		&m.Narration,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.ProcessingAt,
		&m.CompletedAt,
		&m.ReversedAt,
		&m.Version,
	)
	if err != nil {
		return domain.Transfer{}, err
	}
	return mapping.ToDomainTransfer(m)
}

// SaveTransfer inserts a new transfer. The unique reference number backs duplicate detection.
func (r *PgxTransferRepository) SaveTransfer(ctx context.Context, transfer domain.Transfer) error {
	m, err := mapping.ToModelTransfer(transfer)
	if err != nil {
		return err
	}
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);`
	_, err = r.Pool.Exec(ctx, query,
		m.TransferID, m.ReferenceNumber, m.TransferType, m.SourceAccountID, m.DestinationAccountID,
		m.Beneficiary, m.Amount, m.CurrencyCode, m.Fee, m.CreditedAmount, m.CreditedCurrency, m.ExchangeRate, m.Status,
		m.PinAttempts, m.OtpAttempts, m.FailureReason, m.ReversalGroupID, m.ReversalReason, m.Narration,
		m.CreatedAt, m.UpdatedAt, m.ProcessingAt, m.CompletedAt, m.ReversedAt, m.Version,
	)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return fmt.Errorf("%w: transfer reference %s already exists", apperrors.ErrDuplicate, m.ReferenceNumber)
		}
		return fmt.Errorf("failed to save transfer %s: %w", m.TransferID, err)
	}
	return nil
}

// UpdateTransfer rewrites the mutable columns when the stored version matches.
func (r *PgxTransferRepository) UpdateTransfer(ctx context.Context, transfer domain.Transfer, expectedVersion int64) error {
	m, err := mapping.ToModelTransfer(transfer)
	if err != nil {
		return err
	}
	query := `
		UPDATE transfers
		SET fee = $3,
		    credited_amount = $4,
		    credited_currency = $5,
		    exchange_rate = $6,
		    status = $7,
		    pin_attempts = $8,
		    otp_attempts = $9,
		    failure_reason = $10,
		    reversal_group_id = $11,
		    reversal_reason = $12,
		    updated_at = $13,
		    completed_at = $14,
		    reversed_at = $15,
		    processing_at = $16,
		    version = version + 1
		WHERE transfer_id = $1 AND version = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.TransferID, expectedVersion,
		m.Fee, m.CreditedAmount, m.CreditedCurrency, m.ExchangeRate, m.Status,
		m.PinAttempts, m.OtpAttempts, m.FailureReason, m.ReversalGroupID, m.ReversalReason,
		m.UpdatedAt, m.CompletedAt, m.ReversedAt, m.ProcessingAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer %s: %w", m.TransferID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.FindTransferByID(ctx, m.TransferID); err != nil {
			return err
		}
		return fmt.Errorf("%w: transfer %s is no longer at version %d", apperrors.ErrConcurrentModification, m.TransferID, expectedVersion)
	}
	return nil
}

func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	t, err := scanTransfer(r.Pool.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE transfer_id = $1;`, transferID))
	if err != nil {
		return nil, notFound(err, "transfer "+transferID)
	}
	return &t, nil
}

func (r *PgxTransferRepository) FindTransferByReference(ctx context.Context, referenceNumber string) (*domain.Transfer, error) {
	t, err := scanTransfer(r.Pool.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE reference_number = $1;`, referenceNumber))
	if err != nil {
		return nil, notFound(err, "transfer reference "+referenceNumber)
	}
	return &t, nil
}

func (r *PgxTransferRepository) ListTransfersByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := `SELECT ` + transferColumns + ` FROM transfers
		WHERE source_account_id = $1 OR destination_account_id = $1
		ORDER BY created_at DESC, transfer_id DESC
		LIMIT $2;`
	rows, err := r.Pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers of account %s: %w", accountID, err)
	}
	defer rows.Close()

	out := []domain.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer rows: %w", err)
	}
	return out, nil
}

func (r *PgxTransferRepository) SumOutgoingSince(ctx context.Context, accountID string, transferType domain.TransferType, since time.Time) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transfers
		WHERE source_account_id = $1 AND transfer_type = $2 AND processing_at >= $3
		  AND status IN ('PROCESSING', 'COMPLETED');`,
		accountID, string(transferType), since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum outgoing transfers of %s: %w", accountID, err)
	}
	return total, nil
}
