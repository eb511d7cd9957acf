package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	slugGen         *SlugGenerator
	cache           SlugCache
	metrics         Metrics
	now             func() time.Time
}

// AccountOption configures an AccountUseCase.
type AccountOption func(*AccountUseCase)

// WithSlugCache enables slug lookups through cache.
func WithSlugCache(cache SlugCache) AccountOption {
	return func(uc *AccountUseCase) {
		uc.cache = cache
	}
}

// WithAccountMetrics records account activity on m.
func WithAccountMetrics(m Metrics) AccountOption {
	return func(uc *AccountUseCase) {
		uc.metrics = m
	}
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	slugGen *SlugGenerator,
	opts ...AccountOption,
) *AccountUseCase {
	uc := &AccountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		slugGen:         slugGen,
		metrics:         nopMetrics{},
		now:             func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CreateAccountInput represents input for creating an account. ID and Slug
// are optional.
type CreateAccountInput struct {
	ID      string
	Name    string
	Slug    string
	Balance decimal.Decimal
}

// CreateAccount creates a new account. When no slug is supplied one is
// generated inside the creating transaction; if it still loses a race at
// insert time, generation is repeated.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	name, err := domain.ValidateAccountName(input.Name)
	if err != nil {
		return nil, err
	}

	balance, err := domain.ValidateBalance(input.Balance)
	if err != nil {
		return nil, err
	}

	id := uc.idGen.Generate()
	if input.ID != "" {
		id, err = domain.ParseAccountID(input.ID)
		if err != nil {
			return nil, err
		}
	}

	if input.Slug != "" {
		if err := domain.ValidateSlug(input.Slug); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		var account *domain.Account

		err := inTx(ctx, uc.txManager, func(ctx context.Context, tx Tx) error {
			var err error
			account, err = uc.insert(ctx, tx, id, name, input.Slug, balance)
			return err
		})
		if err == nil {
			uc.metrics.AccountCreated()
			return account, nil
		}

		if input.Slug != "" || !errors.Is(err, domain.ErrDuplicateSlug) || attempt >= maxCreateAttempts {
			return nil, err
		}
	}
}

// GetAccount retrieves an account by ID or slug.
func (uc *AccountUseCase) GetAccount(ctx context.Context, key string) (*domain.Account, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrAccountNotFound
	}

	if domain.LooksLikeAccountID(key) {
		id, _ := domain.ParseAccountID(key)

		account, err := uc.accountRepo.GetByID(ctx, id)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return account, err
		}
	}

	return uc.getBySlug(ctx, key)
}

func (uc *AccountUseCase) getBySlug(ctx context.Context, slug string) (*domain.Account, error) {
	// The cache is advisory: any cache failure falls through to the store.
	if uc.cache != nil {
		if id, found, err := uc.cache.Get(ctx, slug); err == nil && found {
			account, err := uc.accountRepo.GetByID(ctx, id)
			if err == nil {
				return account, nil
			}

			if !errors.Is(err, domain.ErrAccountNotFound) {
				return nil, err
			}

			_ = uc.cache.Delete(ctx, slug)
		}
	}

	account, err := uc.accountRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, account.Slug, account.ID)
	}

	return account, nil
}

// UpsertAccountInput represents input for creating or replacing an account
// under a known ID.
type UpsertAccountInput struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

// UpsertAccount replaces the name and balance of the account with the given
// ID, keeping its slug, or creates it with a generated slug. The boolean
// result reports whether the account was created.
func (uc *AccountUseCase) UpsertAccount(ctx context.Context, input UpsertAccountInput) (*domain.Account, bool, error) {
	id, err := domain.ParseAccountID(input.ID)
	if err != nil {
		return nil, false, err
	}

	name, err := domain.ValidateAccountName(input.Name)
	if err != nil {
		return nil, false, err
	}

	balance, err := domain.ValidateBalance(input.Balance)
	if err != nil {
		return nil, false, err
	}

	for attempt := 1; ; attempt++ {
		var (
			account *domain.Account
			created bool
		)

		err := inTx(ctx, uc.txManager, func(ctx context.Context, tx Tx) error {
			existing, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, id)
			if err == nil {
				existing.Name = name
				existing.Balance = balance
				existing.UpdatedAt = uc.now()
				account = existing

				return uc.accountRepo.Update(ctx, tx, existing)
			}

			if !errors.Is(err, domain.ErrAccountNotFound) {
				return err
			}

			created = true
			account, err = uc.insert(ctx, tx, id, name, "", balance)

			return err
		})
		if err == nil {
			if created {
				uc.metrics.AccountCreated()
			}

			return account, created, nil
		}

		// A concurrent writer may have created the same id or taken the
		// generated slug; the next attempt sees its commit.
		conflict := errors.Is(err, domain.ErrDuplicateSlug) || errors.Is(err, domain.ErrDuplicateID)
		if !conflict || attempt >= maxCreateAttempts {
			return nil, false, err
		}
	}
}

// ListAccounts returns the accounts matching filter as a re-iterable
// sequence over one snapshot of the store.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
	accounts, err := uc.accountRepo.List(ctx, normalizeAccountFilter(filter))
	if err != nil {
		return nil, err
	}

	return func(yield func(*domain.Account) bool) {
		for _, account := range accounts {
			if !yield(account.Clone()) {
				return
			}
		}
	}, nil
}

// SearchAccounts lists accounts whose name contains query, ignoring case.
func (uc *AccountUseCase) SearchAccounts(ctx context.Context, query string, limit int) (iter.Seq[*domain.Account], error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	return uc.ListAccounts(ctx, domain.AccountFilter{NameContains: query, Limit: limit})
}

// Summary returns the count and total balance of the accounts matching
// filter. Pagination fields are ignored.
func (uc *AccountUseCase) Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
	return uc.accountRepo.Summary(ctx, domain.AccountFilter{NameContains: strings.TrimSpace(filter.NameContains)})
}

// DeleteAccount removes an account. Accounts referenced by any transaction
// cannot be deleted.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	id, err := domain.ParseAccountID(id)
	if err != nil {
		return err
	}

	var slug string

	err = inTx(ctx, uc.txManager, func(ctx context.Context, tx Tx) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		count, err := uc.transactionRepo.CountByAccount(ctx, tx, id)
		if err != nil {
			return err
		}

		if count > 0 {
			return fmt.Errorf("%w: %d transactions", domain.ErrAccountHasTransactions, count)
		}

		slug = account.Slug

		return uc.accountRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, slug)
	}

	return nil
}

func (uc *AccountUseCase) insert(ctx context.Context, tx Tx, id, name, slug string, balance decimal.Decimal) (*domain.Account, error) {
	if slug == "" {
		var err error

		slug, err = uc.slugGen.Generate(ctx, name, func(ctx context.Context, candidate string) (bool, error) {
			return uc.accountRepo.SlugExists(ctx, tx, candidate, id)
		})
		if err != nil {
			return nil, err
		}
	}

	now := uc.now()

	account := &domain.Account{
		ID:        id,
		Name:      name,
		Slug:      slug,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func normalizeAccountFilter(filter domain.AccountFilter) domain.AccountFilter {
	filter.NameContains = strings.TrimSpace(filter.NameContains)
	filter.Limit, filter.Offset = ClampPage(filter.Limit, filter.Offset)

	return filter
}

// ClampPage normalizes paging parameters: a zero limit means no limit,
// larger limits are capped at MaxPageSize and negative values become zero.
func ClampPage(limit, offset int) (int, int) {
	if limit < 0 {
		limit = 0
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
