package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/usecase"
)

func TestConcurrentTransfers(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	t.Run("1000 concurrent transfers drain the source exactly", func(t *testing.T) {
		l.db.TruncateAll(ctx)

		source := l.db.CreateTestAccountWithBalance(ctx, "Source", "source", decimal.NewFromInt(1000))
		dest := l.db.CreateTestAccount(ctx, "Dest", "dest")

		const numTransfers = 1000

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errOnce      sync.Once
			firstErr     error
		)

		wg.Add(numTransfers)

		for range numTransfers {
			go func() {
				defer wg.Done()

				_, err := l.transferUC.Transfer(ctx, usecase.TransferInput{
					SenderID:   source.ID,
					ReceiverID: dest.ID,
					Amount:     decimal.NewFromInt(1),
				})
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}

				successCount.Add(1)
			}()
		}

		wg.Wait()

		if successCount.Load() != numTransfers {
			t.Errorf("expected %d successful transfers, got %d (first error: %v)", numTransfers, successCount.Load(), firstErr)
		}

		sourceAcc, _ := l.accountRepo.GetByID(ctx, source.ID)
		destAcc, _ := l.accountRepo.GetByID(ctx, dest.ID)

		if !sourceAcc.Balance.IsZero() {
			t.Errorf("expected source balance 0.00, got %s", sourceAcc.Balance)
		}

		if !destAcc.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected dest balance 1000.00, got %s", destAcc.Balance)
		}
	})

	t.Run("overdraft attempts never go negative", func(t *testing.T) {
		l.db.TruncateAll(ctx)

		source := l.db.CreateTestAccountWithBalance(ctx, "Source", "source", decimal.NewFromInt(50))
		dest := l.db.CreateTestAccount(ctx, "Dest", "dest")

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(100)

		for range 100 {
			go func() {
				defer wg.Done()

				_, err := l.transferUC.Transfer(ctx, usecase.TransferInput{
					SenderID: source.ID, ReceiverID: dest.ID, Amount: decimal.NewFromInt(1),
				})
				if err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != 50 {
			t.Errorf("expected 50 successful transfers, got %d", successCount.Load())
		}

		sourceAcc, _ := l.accountRepo.GetByID(ctx, source.ID)
		if !sourceAcc.Balance.IsZero() {
			t.Errorf("expected source balance 0, got %s", sourceAcc.Balance)
		}
	})

	t.Run("opposite transfers do not deadlock", func(t *testing.T) {
		l.db.TruncateAll(ctx)

		a := l.db.CreateTestAccountWithBalance(ctx, "A", "a", decimal.NewFromInt(500))
		b := l.db.CreateTestAccountWithBalance(ctx, "B", "b", decimal.NewFromInt(500))

		var (
			wg       sync.WaitGroup
			failures atomic.Int32
		)

		wg.Add(200)

		for i := range 200 {
			from, to := a.ID, b.ID
			if i%2 == 1 {
				from, to = b.ID, a.ID
			}

			go func() {
				defer wg.Done()

				if _, err := l.transferUC.Transfer(ctx, usecase.TransferInput{
					SenderID: from, ReceiverID: to, Amount: decimal.NewFromInt(1),
				}); err != nil {
					failures.Add(1)
				}
			}()
		}

		wg.Wait()

		if failures.Load() != 0 {
			t.Errorf("expected no failures, got %d", failures.Load())
		}

		aAcc, _ := l.accountRepo.GetByID(ctx, a.ID)
		bAcc, _ := l.accountRepo.GetByID(ctx, b.ID)

		if !aAcc.Balance.Add(bAcc.Balance).Equal(decimal.NewFromInt(1000)) {
			t.Errorf("money was created or destroyed: %s + %s", aAcc.Balance, bAcc.Balance)
		}
	})
}

func TestConcurrentAccountCreation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup

	slugs := make([]string, n)
	errs := make([]error, n)

	wg.Add(n)

	for i := range n {
		go func() {
			defer wg.Done()

			account, err := l.accountUC.CreateAccount(ctx, usecase.CreateAccountInput{Name: "Popular Name"})
			if err != nil {
				errs[i] = err
				return
			}

			slugs[i] = account.Slug
		}()
	}

	wg.Wait()

	seen := make(map[string]bool, n)

	for i := range n {
		if errs[i] != nil {
			t.Fatalf("create %d failed: %v", i, errs[i])
		}

		if seen[slugs[i]] {
			t.Errorf("duplicate slug %q", slugs[i])
		}

		seen[slugs[i]] = true
	}

	if !seen["popular-name"] {
		t.Errorf("expected one account to own the bare slug, got %v", slugs)
	}
}
