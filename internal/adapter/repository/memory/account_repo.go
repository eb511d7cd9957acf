package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository on a Store.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account. Ids and slugs must be unused.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Tx, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, exists := t.account(account.ID); exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, account.ID)
	}

	if _, taken := t.slugOwner(account.Slug); taken {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSlug, account.Slug)
	}

	t.accounts[account.ID] = account.Clone()

	return nil
}

// Update replaces the name and balance of an existing account. The stored
// slug is kept.
func (r *AccountRepository) Update(_ context.Context, tx usecase.Tx, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	current, ok := t.account(account.ID)
	if !ok {
		return domain.ErrAccountNotFound
	}

	updated := current.Clone()
	updated.Name = account.Name
	updated.Balance = account.Balance
	updated.UpdatedAt = account.UpdatedAt
	t.accounts[account.ID] = updated

	return nil
}

// UpdateBalance sets the balance of an existing account.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Tx, id string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	current, ok := t.account(id)
	if !ok {
		return domain.ErrAccountNotFound
	}

	updated := current.Clone()
	updated.Balance = balance
	updated.UpdatedAt = updatedAt
	t.accounts[id] = updated

	return nil
}

// Delete removes an account that no transaction references.
func (r *AccountRepository) Delete(_ context.Context, tx usecase.Tx, id string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, ok := t.account(id); !ok {
		return domain.ErrAccountNotFound
	}

	if t.referenced(id) {
		return domain.ErrAccountHasTransactions
	}

	t.accounts[id] = nil

	return nil
}

// GetByID returns the committed account with the given id.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return account.Clone(), nil
}

// GetBySlug returns the committed account with the given slug.
func (r *AccountRepository) GetBySlug(_ context.Context, slug string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.slugs[slug]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return r.store.accounts[id].Clone(), nil
}

// GetByIDForUpdate returns the account as seen by tx. The store admits a
// single transaction, so every read inside one is already exclusive.
func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	account, ok := t.account(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return account.Clone(), nil
}

// GetByIDsForUpdate returns the existing accounts among ids, in id order.
func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range slices.Compact(sorted) {
		if account, ok := t.account(id); ok {
			accounts = append(accounts, account.Clone())
		}
	}

	return accounts, nil
}

// SlugExists reports whether slug belongs to an account other than
// excludeID.
func (r *AccountRepository) SlugExists(_ context.Context, tx usecase.Tx, slug, excludeID string) (bool, error) {
	t, err := asTx(tx)
	if err != nil {
		return false, err
	}

	owner, ok := t.slugOwner(slug)

	return ok && owner != excludeID, nil
}

// List returns committed accounts ordered by name then id.
func (r *AccountRepository) List(_ context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	matched := r.match(filter)

	slices.SortFunc(matched, func(a, b *domain.Account) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// Summary counts the matching accounts and totals their balances.
func (r *AccountRepository) Summary(_ context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
	summary := domain.AccountSummary{TotalBalance: decimal.Zero}

	for _, account := range r.match(filter) {
		summary.Count++
		summary.TotalBalance = summary.TotalBalance.Add(account.Balance)
	}

	return summary, nil
}

func (r *AccountRepository) match(filter domain.AccountFilter) []*domain.Account {
	needle := strings.ToLower(filter.NameContains)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]*domain.Account, 0, len(r.store.accounts))
	for _, account := range r.store.accounts {
		if needle == "" || strings.Contains(strings.ToLower(account.Name), needle) {
			matched = append(matched, account.Clone())
		}
	}

	return matched
}

// paginate applies offset and limit; a zero limit keeps every item.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
