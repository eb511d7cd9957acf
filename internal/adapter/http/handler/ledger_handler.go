package handler

import (
	"context"
	"net/http"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/domain"
)

// SummaryService defines the behavior needed by LedgerHandler.
type SummaryService interface {
	Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	accountUC SummaryService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(accountUC SummaryService) *LedgerHandler {
	return &LedgerHandler{accountUC: accountUC}
}

// Summary reports the number of accounts and the money they hold.
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.accountUC.Summary(r.Context(), domain.AccountFilter{})
	if err != nil {
		writeDomainError(w, "failed to summarize ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerSummaryResponse{
		TotalAccounts: summary.Count,
		TotalBalance:  domain.FormatMoney(summary.TotalBalance),
	})
}
