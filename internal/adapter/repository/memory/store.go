// Package memory provides an in-process implementation of the ledger
// repositories. One store transaction runs at a time; its writes are staged
// and become visible to readers only on Commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

var errTxDone = errors.New("memory: transaction already closed")

// Store holds committed ledger state.
type Store struct {
	// sem admits one store transaction at a time.
	sem chan struct{}

	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	slugs        map[string]string
	transactions []*domain.Transaction
	txnByID      map[string]*domain.Transaction
	seq          int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sem:      make(chan struct{}, 1),
		accounts: make(map[string]*domain.Account),
		slugs:    make(map[string]string),
		txnByID:  make(map[string]*domain.Transaction),
	}
}

// Begin starts a store transaction, waiting for the running one to finish.
func (s *Store) Begin(ctx context.Context) (usecase.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, ctx.Err())
	}

	return &Tx{
		store:    s,
		accounts: make(map[string]*domain.Account),
	}, nil
}

// Ping always succeeds; it lets the store back a readiness check.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Tx is a store transaction. A nil entry in accounts marks a deletion.
type Tx struct {
	store        *Store
	accounts     map[string]*domain.Account
	transactions []*domain.Transaction
	done         bool
}

// Commit applies the staged writes atomically.
func (t *Tx) Commit(context.Context) error {
	if t.done {
		return errTxDone
	}

	t.done = true
	defer t.release()

	s := t.store

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.accounts {
		if old, ok := s.accounts[id]; ok {
			delete(s.slugs, old.Slug)
			delete(s.accounts, id)
		}
	}

	for id, account := range t.accounts {
		if account != nil {
			s.accounts[id] = account
			s.slugs[account.Slug] = id
		}
	}

	for _, txn := range t.transactions {
		s.transactions = append(s.transactions, txn)
		s.txnByID[txn.ID] = txn
	}

	return nil
}

// Rollback discards the staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}

	t.done = true
	t.release()

	return nil
}

func (t *Tx) release() {
	<-t.store.sem
}

// account returns the account as seen inside the transaction.
func (t *Tx) account(id string) (*domain.Account, bool) {
	if staged, ok := t.accounts[id]; ok {
		return staged, staged != nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	account, ok := t.store.accounts[id]

	return account, ok
}

// slugOwner returns the id holding slug as seen inside the transaction.
func (t *Tx) slugOwner(slug string) (string, bool) {
	for id, staged := range t.accounts {
		if staged != nil && staged.Slug == slug {
			return id, true
		}
	}

	t.store.mu.RLock()
	id, ok := t.store.slugs[slug]
	t.store.mu.RUnlock()

	if !ok {
		return "", false
	}

	// The committed owner may have been deleted in this transaction.
	if staged, touched := t.accounts[id]; touched && staged == nil {
		return "", false
	}

	return id, true
}

func (t *Tx) referenced(id string) bool {
	for _, txn := range t.transactions {
		if txn.Involves(id) {
			return true
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	for _, txn := range t.store.transactions {
		if txn.Involves(id) {
			return true
		}
	}

	return false
}

func asTx(tx usecase.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}

	if t.done {
		return nil, errTxDone
	}

	return t, nil
}
