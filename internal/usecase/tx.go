package usecase

import "context"

// inTx runs fn inside a store transaction bounded by
// DefaultTransactionTimeout. The transaction commits only if fn succeeds.
func inTx(ctx context.Context, txManager TxManager, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
