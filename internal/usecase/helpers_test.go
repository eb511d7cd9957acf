package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/acctledger/internal/adapter/repository/memory"
	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/infrastructure/idgen"
	"github.com/iho/acctledger/internal/usecase"
)

// seqSuffixes yields 00000001, 00000002, ...
type seqSuffixes struct {
	n atomic.Int64
}

func (s *seqSuffixes) Suffix() string {
	return fmt.Sprintf("%08x", s.n.Add(1))
}

type ledger struct {
	store        *memory.Store
	accountRepo  *memory.AccountRepository
	txnRepo      *memory.TransactionRepository
	accounts     *usecase.AccountUseCase
	transfers    *usecase.TransferUseCase
	importer     *usecase.ImportUseCase
	slugSuffixes *seqSuffixes
}

func newLedger(t *testing.T, transferOpts ...usecase.TransferOption) *ledger {
	t.Helper()

	store := memory.NewStore()
	accountRepo := memory.NewAccountRepository(store)
	txnRepo := memory.NewTransactionRepository(store)
	suffixes := &seqSuffixes{}

	accounts := usecase.NewAccountUseCase(store, accountRepo, txnRepo, idgen.NewUUIDGenerator(), usecase.NewSlugGenerator(suffixes))

	return &ledger{
		store:        store,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		accounts:     accounts,
		transfers:    usecase.NewTransferUseCase(store, accountRepo, txnRepo, idgen.NewULIDGenerator(), transferOpts...),
		importer:     usecase.NewImportUseCase(accounts),
		slugSuffixes: suffixes,
	}
}

func (l *ledger) mustCreate(t *testing.T, name, balance string) *domain.Account {
	t.Helper()

	account, err := l.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:    name,
		Balance: money(balance),
	})
	require.NoError(t, err)

	return account
}

func (l *ledger) balance(t *testing.T, id string) string {
	t.Helper()

	account, err := l.accountRepo.GetByID(context.Background(), id)
	require.NoError(t, err)

	return domain.FormatMoney(account.Balance)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
