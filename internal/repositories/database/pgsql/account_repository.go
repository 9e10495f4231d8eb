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

const accountColumns = `account_id, owner_id, kind, currency_code, balance, minimum_balance, status, version,
	closed_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.OwnerID,
		&m.Kind,
		&m.CurrencyCode,
		&m.Balance,
		&m.MinimumBalance,
		&m.Status,
		&m.Version,
		&m.ClosedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`

	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.OwnerID,
		m.Kind,
		m.CurrencyCode,
		m.Balance,
		m.MinimumBalance,
		m.Status,
		m.Version,
		m.ClosedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err, "account "+accountID)
	}
	acc, err := mapping.ToDomainAccount(m)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts. Missing ids are absent from the map.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return r.findAccounts(ctx, r.Pool, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ANY($1);`, accountIDs)
}

// findAccountsForUpdate locks the rows in id order so concurrent postings cannot deadlock.
func (r *PgxAccountRepository) findAccountsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	return r.findAccounts(ctx, tx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`, accountIDs)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PgxAccountRepository) findAccounts(ctx context.Context, q querier, query string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	rows, err := q.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acc, err := mapping.ToDomainAccount(m)
		if err != nil {
			return nil, err
		}
		accounts[m.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// ListAccountsByOwner lists an owner's accounts, oldest first.
func (r *PgxAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY created_at, account_id;`
	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of %s: %w", ownerID, err)
	}
	defer rows.Close()

	result := []models.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(result)
}

// UpdateAccountStatus changes the status when the stored version still matches.
func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, expectedVersion int64, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET status = $2,
		    version = version + 1,
		    closed_at = CASE WHEN $2 = 'CLOSED' THEN $4 ELSE closed_at END,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE account_id = $1 AND version = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, accountID, string(status), expectedVersion, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.FindAccountByID(ctx, accountID); err != nil {
			return err
		}
		return fmt.Errorf("%w: account %s is no longer at version %d", apperrors.ErrConcurrentModification, accountID, expectedVersion)
	}
	return nil
}
