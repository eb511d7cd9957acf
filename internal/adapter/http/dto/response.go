package dto

import (
	"iter"
	"time"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Slug:      a.Slug,
		Balance:   domain.FormatMoney(a.Balance),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromSeq converts a sequence of domain accounts to responses.
func AccountsFromSeq(accounts iter.Seq[*domain.Account]) []*AccountResponse {
	result := []*AccountResponse{}
	for a := range accounts {
		result = append(result, AccountFromDomain(a))
	}
	return result
}

// ListAccountsResponse is one page of accounts plus totals over every
// account matching the search.
type ListAccountsResponse struct {
	Accounts      []*AccountResponse `json:"accounts"`
	TotalAccounts int64              `json:"total_accounts"`
	TotalBalance  string             `json:"total_balance"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}

// SearchAccountsResponse lists accounts whose name matched a query.
type SearchAccountsResponse struct {
	Query    string             `json:"query"`
	Accounts []*AccountResponse `json:"accounts"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Amount    string    `json:"amount"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        t.ID,
		Sender:    t.SenderID,
		Receiver:  t.ReceiverID,
		Amount:    domain.FormatMoney(t.Amount),
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse is one page of transactions, newest first.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// ImportRowResponse reports the outcome of one import row.
type ImportRowResponse struct {
	Line      int    `json:"line"`
	Status    string `json:"status"`
	AccountID string `json:"account_id,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// ImportReportResponse summarizes an import.
type ImportReportResponse struct {
	Created int                 `json:"created"`
	Updated int                 `json:"updated"`
	Failed  int                 `json:"failed"`
	Rows    []ImportRowResponse `json:"rows"`
}

// ImportReportFromUseCase converts an import report to response.
func ImportReportFromUseCase(report *usecase.ImportReport) *ImportReportResponse {
	resp := &ImportReportResponse{
		Created: report.Created,
		Updated: report.Updated,
		Failed:  report.Failed,
		Rows:    make([]ImportRowResponse, len(report.Rows)),
	}

	for i, row := range report.Rows {
		resp.Rows[i] = ImportRowResponse{
			Line:      row.Line,
			Status:    string(row.Status),
			AccountID: row.AccountID,
			Slug:      row.Slug,
		}

		if row.Err != nil {
			resp.Rows[i].Error = row.Err.Error()
			resp.Rows[i].Kind = string(row.Kind())
		}
	}

	return resp
}

// LedgerSummaryResponse aggregates every account in the ledger.
type LedgerSummaryResponse struct {
	TotalAccounts int64  `json:"total_accounts"`
	TotalBalance  string `json:"total_balance"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}
