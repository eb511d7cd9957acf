package handler

import (
	"bytes"
	"context"
	"iter"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/adapter/tabular"
	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, key string) (*domain.Account, error)
	UpsertAccount(ctx context.Context, input usecase.UpsertAccountInput) (*domain.Account, bool, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error)
	SearchAccounts(ctx context.Context, query string, limit int) (iter.Seq[*domain.Account], error)
	Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error)
	DeleteAccount(ctx context.Context, id string) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error(), domain.KindInvalidInput)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid account", err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by slug or ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing account key", "", domain.KindInvalidInput)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), key)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Upsert replaces the account under the path ID or creates it.
func (h *AccountHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error(), domain.KindInvalidInput)
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "key"))
	if err != nil {
		writeDomainError(w, "invalid account", err)
		return
	}

	account, created, err := h.accountUC.UpsertAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to save account", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, dto.AccountFromDomain(account))
}

// Delete removes an account that no transaction references.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accountUC.DeleteAccount(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeDomainError(w, "failed to delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List lists accounts, optionally filtered by name, with totals over the
// whole filtered set.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AccountFilter{
		NameContains: r.URL.Query().Get("search"),
		Limit:        parseIntQuery(r, "limit", usecase.DefaultPageSize),
		Offset:       parseIntQuery(r, "offset", 0),
	}
	filter.Limit, filter.Offset = usecase.ClampPage(filter.Limit, filter.Offset)

	accounts, err := h.accountUC.ListAccounts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	summary, err := h.accountUC.Summary(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to summarize accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts:      dto.AccountsFromSeq(accounts),
		TotalAccounts: summary.Count,
		TotalBalance:  domain.FormatMoney(summary.TotalBalance),
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
}

// Export writes every account matching the optional search parameter as a
// CSV attachment that the import endpoint accepts back.
func (h *AccountHandler) Export(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), domain.AccountFilter{
		NameContains: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeDomainError(w, "failed to export accounts", err)
		return
	}

	var buf bytes.Buffer
	if err := tabular.WriteAccountRows(&buf, accounts); err != nil {
		writeDomainError(w, "failed to export accounts", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Search lists accounts whose name contains the q parameter.
func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	accounts, err := h.accountUC.SearchAccounts(r.Context(), query, parseIntQuery(r, "limit", usecase.DefaultPageSize))
	if err != nil {
		writeDomainError(w, "failed to search accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SearchAccountsResponse{
		Query:    query,
		Accounts: dto.AccountsFromSeq(accounts),
	})
}
