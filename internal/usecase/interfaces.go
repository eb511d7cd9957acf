package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// AccountRepository defines data access for accounts. Methods taking a Tx
// run inside that store transaction; the others read committed state.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	Update(ctx context.Context, tx Tx, account *domain.Account) error
	UpdateBalance(ctx context.Context, tx Tx, id string, balance decimal.Decimal, updatedAt time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	SlugExists(ctx context.Context, tx Tx, slug, excludeID string) (bool, error)
	List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
	Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	CountByAccount(ctx context.Context, tx Tx, accountID string) (int64, error)
}

// Tx represents a store transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retrier re-runs an operation on transient store conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// SuffixSource produces the random suffixes used to disambiguate slugs.
type SuffixSource interface {
	Suffix() string
}

// SlugCache maps immutable slugs to account ids.
type SlugCache interface {
	Get(ctx context.Context, slug string) (id string, found bool, err error)
	Set(ctx context.Context, slug, id string) error
	Delete(ctx context.Context, slug string) error
}

// EventPublisher announces committed transactions to external systems.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, txn *domain.Transaction) error
}

// Metrics records ledger activity.
type Metrics interface {
	TransferRecorded(amount decimal.Decimal)
	TransferFailed(kind domain.Kind)
	AccountCreated()
	ImportRowProcessed(status ImportStatus)
}

type nopMetrics struct{}

func (nopMetrics) TransferRecorded(decimal.Decimal) {}
func (nopMetrics) TransferFailed(domain.Kind) {}
func (nopMetrics) AccountCreated() {}
func (nopMetrics) ImportRowProcessed(ImportStatus) {}

// directRetrier runs the operation once.
type directRetrier struct{}

func (directRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
