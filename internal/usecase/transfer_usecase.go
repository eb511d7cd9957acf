package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
)

// TransferUseCase moves money between two accounts and records the
// resulting transaction.
type TransferUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	retrier         Retrier
	publisher       EventPublisher
	metrics         Metrics
	logger          zerolog.Logger
	now             func() time.Time
}

// TransferOption configures a TransferUseCase.
type TransferOption func(*TransferUseCase)

// WithRetrier retries transfers that hit transient store conflicts.
func WithRetrier(r Retrier) TransferOption {
	return func(uc *TransferUseCase) {
		uc.retrier = r
	}
}

// WithEventPublisher announces every committed transaction through p.
func WithEventPublisher(p EventPublisher) TransferOption {
	return func(uc *TransferUseCase) {
		uc.publisher = p
	}
}

// WithTransferMetrics records transfer outcomes on m.
func WithTransferMetrics(m Metrics) TransferOption {
	return func(uc *TransferUseCase) {
		uc.metrics = m
	}
}

// WithTransferLogger sets the logger used for post-commit failures.
func WithTransferLogger(logger zerolog.Logger) TransferOption {
	return func(uc *TransferUseCase) {
		uc.logger = logger
	}
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	opts ...TransferOption,
) *TransferUseCase {
	uc := &TransferUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		retrier:         directRetrier{},
		metrics:         nopMetrics{},
		logger:          zerolog.Nop(),
		now:             func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// TransferInput represents input for a transfer. Date defaults to the
// moment the transfer is applied.
type TransferInput struct {
	Date       *time.Time
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
}

// Transfer validates and atomically applies a transfer: both balances
// change and the transaction is recorded, or nothing changes.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	txn, err := uc.transfer(ctx, input)
	if err != nil {
		uc.metrics.TransferFailed(domain.KindOf(err))
		return nil, err
	}

	uc.metrics.TransferRecorded(txn.Amount)

	if uc.publisher != nil {
		if err := uc.publisher.PublishTransaction(ctx, txn); err != nil {
			uc.logger.Warn().
				Err(err).
				Str("transaction_id", txn.ID).
				Msg("failed to publish transaction event")
		}
	}

	return txn, nil
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	senderID := canonicalID(input.SenderID)
	receiverID := canonicalID(input.ReceiverID)

	// 0. Validate inputs before starting transaction
	if senderID == receiverID {
		return nil, domain.ErrSelfTransfer
	}

	amount, err := domain.ValidateAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	// 1. Lock in sorted order (DEADLOCK PREVENTION)
	ids := []string{senderID, receiverID}
	slices.Sort(ids)

	var recorded *domain.Transaction

	err = uc.retrier.Retry(ctx, func() error {
		txn, err := uc.apply(ctx, ids, senderID, receiverID, amount, input.Date)
		if err != nil {
			return err
		}

		recorded = txn

		return nil
	})
	if err != nil {
		return nil, err
	}

	return recorded, nil
}

func (uc *TransferUseCase) apply(
	ctx context.Context,
	lockOrder []string,
	senderID, receiverID string,
	amount decimal.Decimal,
	date *time.Time,
) (*domain.Transaction, error) {
	var txn *domain.Transaction

	err := inTx(ctx, uc.txManager, func(ctx context.Context, tx Tx) error {
		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, lockOrder)
		if err != nil {
			return err
		}

		var sender, receiver *domain.Account
		for _, a := range accounts {
			switch a.ID {
			case senderID:
				sender = a
			case receiverID:
				receiver = a
			}
		}

		if sender == nil {
			return fmt.Errorf("%w: sender %s", domain.ErrAccountNotFound, senderID)
		}

		if receiver == nil {
			return fmt.Errorf("%w: receiver %s", domain.ErrAccountNotFound, receiverID)
		}

		if err := sender.ValidateDebit(amount); err != nil {
			return err
		}

		if err := receiver.ValidateCredit(amount); err != nil {
			return err
		}

		now := uc.now()

		eventDate := now
		if date != nil {
			eventDate = date.UTC()
		}

		txn = &domain.Transaction{
			ID:         uc.idGen.Generate(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     amount,
			Date:       eventDate,
			CreatedAt:  now,
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, sender.ID, sender.ApplyDebit(amount), now); err != nil {
			return err
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, receiver.ID, receiver.ApplyCredit(amount), now); err != nil {
			return err
		}

		return uc.transactionRepo.Create(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransferUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactions lists transactions newest first, optionally limited to
// those involving one account.
func (uc *TransferUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter.AccountID != "" {
		filter.AccountID = canonicalID(filter.AccountID)
	}

	filter.Limit, filter.Offset = ClampPage(filter.Limit, filter.Offset)

	return uc.transactionRepo.List(ctx, filter)
}

// canonicalID lowercases UUID-shaped ids and leaves anything else untouched
// so that it fails lookup as not found.
func canonicalID(id string) string {
	if parsed, err := domain.ParseAccountID(id); err == nil {
		return parsed
	}

	return id
}
