package dto

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:        "acc-1",
		Name:      "Main",
		Slug:      "main",
		Balance:   decimal.RequireFromString("123.4"),
		CreatedAt: now,
		UpdatedAt: now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.Slug != "main" || resp.Balance != "123.40" {
		t.Fatalf("unexpected account response: %+v", resp)
	}

	list := AccountsFromSeq(slices.Values([]*domain.Account{account}))
	if len(list) != 1 || list[0].ID != account.ID {
		t.Fatalf("AccountsFromSeq returned %+v", list)
	}

	if empty := AccountsFromSeq(slices.Values([]*domain.Account(nil))); empty == nil || len(empty) != 0 {
		t.Fatalf("expected non-nil empty slice, got %#v", empty)
	}
}

func TestTransactionFromDomain(t *testing.T) {
	now := time.Now()
	txn := &domain.Transaction{
		ID:         "txn-1",
		SenderID:   "a",
		ReceiverID: "b",
		Amount:     decimal.RequireFromString("5"),
		Date:       now,
		CreatedAt:  now,
	}

	resp := TransactionFromDomain(txn)
	if resp.ID != "txn-1" || resp.Sender != "a" || resp.Receiver != "b" || resp.Amount != "5.00" {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}

	list := TransactionsFromDomain([]*domain.Transaction{txn})
	if len(list) != 1 || list[0].ID != "txn-1" {
		t.Fatalf("TransactionsFromDomain returned %+v", list)
	}
}

func TestImportReportFromUseCase(t *testing.T) {
	report := &usecase.ImportReport{
		Rows: []usecase.RowResult{
			{Line: 2, Status: usecase.ImportStatusCreated, AccountID: "acc-1", Slug: "alice"},
			{Line: 3, Status: usecase.ImportStatusFailed, Err: errors.Join(domain.ErrMalformedRow, errors.New("balance"))},
		},
		Created: 1,
		Failed:  1,
	}

	resp := ImportReportFromUseCase(report)
	if resp.Created != 1 || resp.Failed != 1 || len(resp.Rows) != 2 {
		t.Fatalf("unexpected report: %+v", resp)
	}

	if resp.Rows[0].Error != "" || resp.Rows[0].Slug != "alice" {
		t.Fatalf("unexpected created row: %+v", resp.Rows[0])
	}

	if resp.Rows[1].Kind != string(domain.KindMalformedRow) || resp.Rows[1].Status != "failed" {
		t.Fatalf("unexpected failed row: %+v", resp.Rows[1])
	}
}
