package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateSlug          = errors.New("slug already taken")
	ErrDuplicateID            = errors.New("account id already exists")
	ErrAccountHasTransactions = errors.New("account is referenced by transactions")
	ErrInvalidAccountName     = errors.New("invalid account name")
	ErrInvalidSlug            = errors.New("invalid slug")
	ErrInvalidID              = errors.New("invalid account id")

	// Transfer errors
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Import errors
	ErrMalformedRow  = errors.New("malformed import row")
	ErrMalformedFile = errors.New("malformed import file")

	// ErrStorageUnavailable marks transient storage failures. It is the only
	// error a caller may retry without changing its input.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Kind classifies an error for callers that present feedback per kind.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindDuplicateSlug          Kind = "duplicate_slug"
	KindDuplicateID            Kind = "duplicate_id"
	KindAccountHasTransactions Kind = "account_has_transactions"
	KindSelfTransferNotAllowed Kind = "self_transfer_not_allowed"
	KindInvalidAmount          Kind = "invalid_amount"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindMalformedRow           Kind = "malformed_row"
	KindMalformedFile          Kind = "malformed_file"
	KindInvalidInput           Kind = "invalid_input"
	KindStorageUnavailable     Kind = "storage_unavailable"
	KindInternal               Kind = "internal"
)

// Retryable reports whether an operation failing with this kind may be
// repeated unchanged.
func (k Kind) Retryable() bool {
	return k == KindStorageUnavailable
}

// kindTable is ordered: wrapping sentinels are matched before the causes
// they wrap.
var kindTable = []struct {
	err  error
	kind Kind
}{
	{ErrMalformedRow, KindMalformedRow},
	{ErrMalformedFile, KindMalformedFile},
	{ErrStorageUnavailable, KindStorageUnavailable},
	{ErrAccountNotFound, KindNotFound},
	{ErrTransactionNotFound, KindNotFound},
	{ErrDuplicateSlug, KindDuplicateSlug},
	{ErrDuplicateID, KindDuplicateID},
	{ErrAccountHasTransactions, KindAccountHasTransactions},
	{ErrSelfTransfer, KindSelfTransferNotAllowed},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidAccountName, KindInvalidInput},
	{ErrInvalidSlug, KindInvalidInput},
	{ErrInvalidID, KindInvalidInput},
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}

	return KindInternal
}
