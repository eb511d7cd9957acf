package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/infrastructure/postgres/generated"
	"github.com/iho/acctledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts txn and stores the assigned sequence on it.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	seq, err := r.queries.WithTx(ptx).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:         txn.ID,
		SenderID:   txn.SenderID,
		ReceiverID: txn.ReceiverID,
		Amount:     decimalToNumeric(txn.Amount),
		Date:       timeToPgTimestamptz(txn.Date),
		CreatedAt:  timeToPgTimestamptz(txn.CreatedAt),
	})
	if err != nil {
		return mapError(err)
	}

	txn.Seq = seq

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, mapError(err)
	}

	return rowToTransaction(row), nil
}

// List lists transactions newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, generated.ListTransactionsParams{
		AccountID:  filter.AccountID,
		PartyName:  filter.PartyName,
		PageLimit:  int32(filter.Limit),
		PageOffset: int32(filter.Offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, rowToTransaction(row))
	}

	return txns, nil
}

// CountByAccount counts the transactions involving accountID.
func (r *TransactionRepository) CountByAccount(ctx context.Context, tx usecase.Tx, accountID string) (int64, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return 0, err
	}

	count, err := r.queries.WithTx(ptx).CountTransactionsByAccount(ctx, accountID)

	return count, mapError(err)
}
