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

// PgxCredentialRepository stores PIN hashes and transfer OTPs.
type PgxCredentialRepository struct {
	BaseRepository
}

func newPgxCredentialRepository(pool *pgxpool.Pool) *PgxCredentialRepository {
	return &PgxCredentialRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.CredentialRepository = (*PgxCredentialRepository)(nil)
	_ portsrepo.OTPRepository        = (*PgxCredentialRepository)(nil)
)

func (r *PgxCredentialRepository) SavePinHash(ctx context.Context, ownerID string, pinHash string, now time.Time) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO owner_credentials (owner_id, pin_hash, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash, updated_at = EXCLUDED.updated_at;`,
		ownerID, pinHash, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save pin of %s: %w", ownerID, err)
	}
	return nil
}

func (r *PgxCredentialRepository) FindPinHash(ctx context.Context, ownerID string) (string, error) {
	var hash string
	if err := r.Pool.QueryRow(ctx, `SELECT pin_hash FROM owner_credentials WHERE owner_id = $1;`, ownerID).Scan(&hash); err != nil {
		return "", notFound(err, "pin of "+ownerID)
	}
	return hash, nil
}

func (r *PgxCredentialRepository) SaveOTP(ctx context.Context, otp domain.OTP) error {
	m := mapping.ToModelOTP(otp)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO transfer_otps (otp_id, transfer_id, code_hash, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		m.OtpID, m.TransferID, m.CodeHash, m.ExpiresAt, m.UsedAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save otp for transfer %s: %w", m.TransferID, err)
	}
	return nil
}

func (r *PgxCredentialRepository) FindLatestOTP(ctx context.Context, transferID string) (*domain.OTP, error) {
	var m models.TransferOTP
	err := r.Pool.QueryRow(ctx, `
		SELECT otp_id, transfer_id, code_hash, expires_at, used_at, created_at
		FROM transfer_otps WHERE transfer_id = $1
		ORDER BY created_at DESC, otp_id DESC LIMIT 1;`, transferID,
	).Scan(&m.OtpID, &m.TransferID, &m.CodeHash, &m.ExpiresAt, &m.UsedAt, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, "otp of transfer "+transferID)
	}
	otp := mapping.ToDomainOTP(m)
	return &otp, nil
}

// ConsumeOTP only succeeds for the first caller.
func (r *PgxCredentialRepository) ConsumeOTP(ctx context.Context, otpID string, now time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, `UPDATE transfer_otps SET used_at = $2 WHERE otp_id = $1 AND used_at IS NULL;`, otpID, now)
	if err != nil {
		return fmt.Errorf("failed to consume otp %s: %w", otpID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: otp %s already used", apperrors.ErrConcurrentModification, otpID)
	}
	return nil
}
