package mapping

import (
	"fmt"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
)

// corruptRow reports a stored value the domain does not know. It is an integrity fault,
// not a caller error, so the parse error is flattened rather than wrapped.
func corruptRow(what, id string, err error) error {
	return fmt.Errorf("%w: stored %s %s: %v", apperrors.ErrIntegrity, what, id, err)
}
