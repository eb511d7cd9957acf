package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// TransferService defines the behavior needed by TransactionHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// AccountLookup resolves an account slug or ID.
type AccountLookup interface {
	GetAccount(ctx context.Context, key string) (*domain.Account, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transferUC TransferService
	accounts   AccountLookup
}

// NewTransactionHandler creates a new TransactionHandler. With a nil
// accounts lookup, account paths must carry IDs rather than slugs.
func NewTransactionHandler(transferUC TransferService, accounts AccountLookup) *TransactionHandler {
	return &TransactionHandler{transferUC: transferUC, accounts: accounts}
}

// Create records a transfer between two accounts.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error(), domain.KindInvalidInput)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	txn, err := h.transferUC.Transfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, "transfer failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transferUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// List lists transactions newest first. The account query parameter limits
// the listing to one account.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("account"))
}

// ListByAccount lists the transactions an account sent or received. The
// account is addressed by slug or ID.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "key")

	if h.accounts != nil {
		account, err := h.accounts.GetAccount(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, "failed to get account", err)
			return
		}

		accountID = account.ID
	}

	h.list(w, r, accountID)
}

func (h *TransactionHandler) list(w http.ResponseWriter, r *http.Request, accountID string) {
	filter := domain.TransactionFilter{
		AccountID: accountID,
		PartyName: r.URL.Query().Get("party"),
		Limit:     parseIntQuery(r, "limit", usecase.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	}
	filter.Limit, filter.Offset = usecase.ClampPage(filter.Limit, filter.Offset)

	transactions, err := h.transferUC.ListTransactions(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
}
