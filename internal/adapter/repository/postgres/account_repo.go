package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/infrastructure/postgres/generated"
	"github.com/iho/acctledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. db is usually a
// *pgxpool.Pool.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create inserts a new account. Slug and id collisions surface as
// ErrDuplicateSlug and ErrDuplicateID.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	err = queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		Name:      account.Name,
		Slug:      account.Slug,
		Balance:   decimalToNumeric(account.Balance),
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapError(err)
}

// Update replaces the name and balance of an account. The slug column is
// never written after insert.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateAccount(ctx, generated.UpdateAccountParams{
		ID:        account.ID,
		Name:      account.Name,
		Balance:   decimalToNumeric(account.Balance),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})

	return affected(n, err)
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})

	return affected(n, err)
}

// Delete removes an account. The foreign keys from transactions reject the
// delete while any transaction references it.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Tx, id string) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	n, err := queries.DeleteAccount(ctx, id)

	return affected(n, err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)

	return accountOrNotFound(row, err)
}

// GetBySlug retrieves an account by slug.
func (r *AccountRepository) GetBySlug(ctx context.Context, slug string) (*domain.Account, error) {
	row, err := r.queries.GetAccountBySlug(ctx, slug)

	return accountOrNotFound(row, err)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	queries, err := r.inTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetAccountByIDForUpdate(ctx, id)

	return accountOrNotFound(row, err)
}

// GetByIDsForUpdate locks the existing accounts among ids in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	queries, err := r.inTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// SlugExists reports whether slug belongs to an account other than
// excludeID.
func (r *AccountRepository) SlugExists(ctx context.Context, tx usecase.Tx, slug, excludeID string) (bool, error) {
	queries, err := r.inTx(tx)
	if err != nil {
		return false, err
	}

	exists, err := queries.SlugExists(ctx, generated.SlugExistsParams{Slug: slug, ExcludeID: excludeID})

	return exists, mapError(err)
}

// List lists accounts ordered by name then id.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Search:     filter.NameContains,
		PageLimit:  int32(filter.Limit),
		PageOffset: int32(filter.Offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// Summary counts the matching accounts and totals their balances.
func (r *AccountRepository) Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
	row, err := r.queries.AccountSummary(ctx, filter.NameContains)
	if err != nil {
		return domain.AccountSummary{}, mapError(err)
	}

	return domain.AccountSummary{
		Count:        row.Count,
		TotalBalance: numericToDecimal(row.TotalBalance),
	}, nil
}

func (r *AccountRepository) inTx(tx usecase.Tx) (*generated.Queries, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return r.queries.WithTx(ptx), nil
}

func accountOrNotFound(row generated.Account, err error) (*domain.Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts
}

// affected maps a zero-row write to ErrAccountNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return mapError(err)
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
