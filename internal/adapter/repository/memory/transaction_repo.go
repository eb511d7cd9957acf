package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository on a
// Store.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages txn and assigns its insertion sequence.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	for _, id := range []string{txn.SenderID, txn.ReceiverID} {
		if _, ok := t.account(id); !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
	}

	r.store.mu.Lock()
	r.store.seq++
	txn.Seq = r.store.seq
	r.store.mu.Unlock()

	cp := *txn
	t.transactions = append(t.transactions, &cp)

	return nil
}

// GetByID returns a committed transaction.
func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.txnByID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	cp := *txn

	return &cp, nil
}

// List returns committed transactions newest first.
func (r *TransactionRepository) List(_ context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	r.store.mu.RLock()

	matched := make([]*domain.Transaction, 0, len(r.store.transactions))
	for _, txn := range r.store.transactions {
		if filter.AccountID != "" && !txn.Involves(filter.AccountID) {
			continue
		}

		if filter.PartyName == "" || r.partyNameMatches(txn, filter.PartyName) {
			cp := *txn
			matched = append(matched, &cp)
		}
	}

	r.store.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *domain.Transaction) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// partyNameMatches reports whether the sender or receiver name contains
// needle, ignoring case. The caller holds the store read lock.
func (r *TransactionRepository) partyNameMatches(txn *domain.Transaction, needle string) bool {
	needle = strings.ToLower(needle)

	for _, id := range []string{txn.SenderID, txn.ReceiverID} {
		if account, ok := r.store.accounts[id]; ok && strings.Contains(strings.ToLower(account.Name), needle) {
			return true
		}
	}

	return false
}

// CountByAccount counts the transactions involving accountID as seen by tx.
func (r *TransactionRepository) CountByAccount(_ context.Context, tx usecase.Tx, accountID string) (int64, error) {
	t, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	var count int64

	for _, txn := range t.transactions {
		if txn.Involves(accountID) {
			count++
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, txn := range r.store.transactions {
		if txn.Involves(accountID) {
			count++
		}
	}

	return count, nil
}
