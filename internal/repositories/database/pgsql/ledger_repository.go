package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/digital_bank_ledger/internal/models"
	"github.com/SscSPs/digital_bank_ledger/internal/utils/mapping"
	"github.com/SscSPs/digital_bank_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, group_id, account_id, direction, amount, currency_code, sequence, balance_after, memo, created_at`

type PgxLedgerRepository struct {
	BaseRepository
	accounts *PgxAccountRepository
}

// newPgxLedgerRepository creates a new repository for postings and entries.
func newPgxLedgerRepository(pool *pgxpool.Pool, accounts *PgxAccountRepository) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}, accounts: accounts}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SavePosting writes the header, the balance updates and the entries in one transaction.
func (r *PgxLedgerRepository) SavePosting(ctx context.Context, posting domain.Posting, updates []domain.BalanceUpdate) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	header := mapping.ToModelPosting(posting)
	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_postings (group_id, kind, reference, posted_at) VALUES ($1, $2, $3, $4);`,
		header.GroupID, header.Kind, header.Reference, header.PostedAt,
	)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateGroupID, header.GroupID)
		}
		return fmt.Errorf("failed to insert posting %s: %w", header.GroupID, err)
	}

	accountIDs := make([]string, 0, len(updates))
	for _, u := range updates {
		accountIDs = append(accountIDs, u.AccountID)
	}
	locked, err := r.accounts.findAccountsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return err
	}
	for _, u := range updates {
		acc, ok := locked[u.AccountID]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, u.AccountID)
		}
		if acc.Version != u.ExpectedVersion {
			return fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrConcurrentModification, u.AccountID, acc.Version, u.ExpectedVersion)
		}
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE accounts SET balance = $2, version = version + 1, last_updated_at = $4
			 WHERE account_id = $1 AND version = $3;`,
			u.AccountID, u.NewBalance, u.ExpectedVersion, posting.PostedAt,
		)
	}
	for _, e := range posting.Entries {
		m := mapping.ToModelLedgerEntry(e)
		batch.Queue(
			`INSERT INTO ledger_entries (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
			m.EntryID, m.GroupID, m.AccountID, m.Direction, m.Amount, m.CurrencyCode, m.Sequence, m.BalanceAfter, m.Memo, m.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for _, u := range updates {
		cmdTag, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("failed to update balance of account %s: %w", u.AccountID, err)
		}
		if cmdTag.RowsAffected() != 1 {
			br.Close()
			return fmt.Errorf("%w: account %s changed during posting", apperrors.ErrConcurrentModification, u.AccountID)
		}
	}
	for _, e := range posting.Entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert entry %d of posting %s: %w", e.Sequence, posting.GroupID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close posting batch: %w", err)
	}

	return r.Commit(ctx, tx)
}

// FindPostingByGroupID loads the header and its entries ordered by sequence.
func (r *PgxLedgerRepository) FindPostingByGroupID(ctx context.Context, groupID string) (*domain.Posting, error) {
	var header models.Posting
	err := r.Pool.QueryRow(ctx,
		`SELECT group_id, kind, reference, posted_at FROM ledger_postings WHERE group_id = $1;`, groupID,
	).Scan(&header.GroupID, &header.Kind, &header.Reference, &header.PostedAt)
	if err != nil {
		return nil, notFound(err, "posting "+groupID)
	}

	entries, err := r.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE group_id = $1 ORDER BY sequence;`, groupID)
	if err != nil {
		return nil, err
	}
	p, err := mapping.ToDomainPosting(header, entries)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListEntriesByAccount pages newest first with a (created_at, entry_id) keyset cursor.
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	args := []any{accountID, limit + 1}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1`
	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, entry_id) < ($3, $4)`
		args = append(args, cursorAt, cursorID)
	}
	query += ` ORDER BY created_at DESC, entry_id DESC LIMIT $2;`

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.EntryID)
		next = &token
		entries = entries[:limit]
	}
	domainEntries, err := mapping.ToDomainLedgerEntrySlice(entries)
	if err != nil {
		return nil, nil, err
	}
	return domainEntries, next, nil
}

// SumEntriesByAccount totals both sides of an account's entries.
func (r *PgxLedgerRepository) SumEntriesByAccount(ctx context.Context, accountID string) (int64, int64, error) {
	var credits, debits int64
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0)
		FROM ledger_entries WHERE account_id = $1;`, accountID,
	).Scan(&credits, &debits)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum entries of account %s: %w", accountID, err)
	}
	return credits, debits, nil
}

func (r *PgxLedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var m models.LedgerEntry
		if err := rows.Scan(
			&m.EntryID,
			&m.GroupID,
			&m.AccountID,
			&m.Direction,
			&m.Amount,
			&m.CurrencyCode,
			&m.Sequence,
			&m.BalanceAfter,
			&m.Memo,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}
