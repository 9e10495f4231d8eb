package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

// Direction indicates whether an entry debits or credits its account.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// ParseDirection rejects values outside the closed set.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(s)); d {
	case Debit, Credit:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", apperrors.ErrValidation, s)
	}
}

// Signed returns the effect of amount on a balance: credits add, debits subtract.
func (d Direction) Signed(amount int64) int64 {
	if d == Debit {
		return -amount
	}
	return amount
}

// Opposite flips the direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// PostingKind tags what business operation created a posting group.
type PostingKind string

const (
	PostingTransfer        PostingKind = "TRANSFER"
	PostingTransferReverse PostingKind = "TRANSFER_REVERSAL"
	PostingDeposit         PostingKind = "DEPOSIT"
	PostingWithdrawal      PostingKind = "WITHDRAWAL"
	PostingCheckDeposit    PostingKind = "CHECK_DEPOSIT"
	PostingHoldForfeit     PostingKind = "HOLD_FORFEIT"
)

// ParsePostingKind rejects values outside the closed set.
func ParsePostingKind(s string) (PostingKind, error) {
	switch k := PostingKind(strings.ToUpper(s)); k {
	case PostingTransfer, PostingTransferReverse, PostingDeposit, PostingWithdrawal, PostingCheckDeposit, PostingHoldForfeit:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown posting kind %q", apperrors.ErrValidation, s)
	}
}

// EntryLine is a ledger entry before it has been assigned an id.
type EntryLine struct {
	AccountID string
	Direction Direction
	Amount    Money
	Memo      string
}

// LedgerEntry is an immutable line of a posting group.
type LedgerEntry struct {
	EntryID      string    `json:"entryID"`
	GroupID      string    `json:"groupID"`
	AccountID    string    `json:"accountID"`
	Direction    Direction `json:"direction"`
	Amount       Money     `json:"amount"`
	Sequence     int       `json:"sequence"`
	BalanceAfter int64     `json:"balanceAfterMinor"`
	Memo         string    `json:"memo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Posting is a balanced group of entries written atomically.
type Posting struct {
	GroupID   string        `json:"groupID"`
	Kind      PostingKind   `json:"kind"`
	Reference string        `json:"reference,omitempty"` // e.g. the original group of a reversal
	Entries   []LedgerEntry `json:"entries"`
	PostedAt  time.Time     `json:"postedAt"`
	Replayed  bool          `json:"replayed"` // true when a retry returned the stored posting
}

// PostingRequest asks the ledger to write a new group.
type PostingRequest struct {
	GroupID   string
	Kind      PostingKind
	Reference string
	Lines     []EntryLine
	// CheckAvailable makes net debits respect active holds, not only the raw balance.
	CheckAvailable bool
}

// BalanceUpdate is the per-account effect of a posting, applied with an optimistic version check.
type BalanceUpdate struct {
	AccountID       string
	Delta           int64
	NewBalance      int64
	ExpectedVersion int64
}

// Validate checks shape and balance. Unbalanced groups are reported as integrity faults.
func (r PostingRequest) Validate() error {
	if r.GroupID == "" {
		return fmt.Errorf("%w: group id is required", apperrors.ErrValidation)
	}
	if _, err := ParsePostingKind(string(r.Kind)); err != nil {
		return err
	}
	if len(r.Lines) == 0 {
		return fmt.Errorf("%w: posting has no entries", apperrors.ErrValidation)
	}
	for i, l := range r.Lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: entry %d has no account", apperrors.ErrValidation, i)
		}
		if _, err := ParseDirection(string(l.Direction)); err != nil {
			return err
		}
		if _, err := ParseCurrency(string(l.Amount.Currency)); err != nil {
			return err
		}
		if !l.Amount.IsPositive() {
			return fmt.Errorf("%w: entry %d amount must be positive", apperrors.ErrValidation, i)
		}
	}
	return CheckBalanced(r.Lines)
}

// CheckBalanced verifies that debits equal credits per currency.
func CheckBalanced(lines []EntryLine) error {
	net := make(map[Currency]int64)
	for _, l := range lines {
		v, err := addInt64(net[l.Amount.Currency], l.Direction.Signed(l.Amount.Amount))
		if err != nil {
			return err
		}
		net[l.Amount.Currency] = v
	}
	for c, v := range net {
		if v != 0 {
			return fmt.Errorf("%w: %w: %s nets to %d", apperrors.ErrIntegrity, apperrors.ErrUnbalanced, c, v)
		}
	}
	return nil
}

// MirrorLines returns the equal-and-opposite lines of a posting.
func MirrorLines(entries []LedgerEntry, memo string) []EntryLine {
	lines := make([]EntryLine, len(entries))
	for i, e := range entries {
		lines[i] = EntryLine{
			AccountID: e.AccountID,
			Direction: e.Direction.Opposite(),
			Amount:    e.Amount,
			Memo:      memo,
		}
	}
	return lines
}

// Reconciliation compares the stored balance with the sum of posted entries.
type Reconciliation struct {
	AccountID     string `json:"accountID"`
	StoredBalance int64  `json:"storedBalanceMinor"`
	Credits       int64  `json:"creditsMinor"`
	Debits        int64  `json:"debitsMinor"`
	EntryBalance  int64  `json:"entryBalanceMinor"`
	Consistent    bool   `json:"consistent"`
}
