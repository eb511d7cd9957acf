package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

type accountServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn     func(ctx context.Context, key string) (*domain.Account, error)
	upsertFn  func(ctx context.Context, input usecase.UpsertAccountInput) (*domain.Account, bool, error)
	listFn    func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error)
	searchFn  func(ctx context.Context, query string, limit int) (iter.Seq[*domain.Account], error)
	summaryFn func(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, key string) (*domain.Account, error) {
	return s.getFn(ctx, key)
}

func (s *accountServiceStub) UpsertAccount(ctx context.Context, input usecase.UpsertAccountInput) (*domain.Account, bool, error) {
	return s.upsertFn(ctx, input)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
	return s.listFn(ctx, filter)
}

func (s *accountServiceStub) SearchAccounts(ctx context.Context, query string, limit int) (iter.Seq[*domain.Account], error) {
	return s.searchFn(ctx, query, limit)
}

func (s *accountServiceStub) Summary(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
	return s.summaryFn(ctx, filter)
}

func (s *accountServiceStub) DeleteAccount(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func testAccount(name, slug, balance string) *domain.Account {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return &domain.Account{
		ID:        "8d0c2d6e-5a55-4b7e-9d8f-0e4c1f1f1a2b",
		Name:      name,
		Slug:      slug,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput

	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return testAccount(input.Name, "main", "12.50"), nil
		},
	})

	rec := serve(http.MethodPost, "/accounts", "/accounts",
		strings.NewReader(`{"name":"Main","balance":"12.5"}`), handler.Create)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Name != "Main" || !captured.Balance.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Slug != "main" || resp.Balance != "12.50" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind domain.Kind
	}{
		{"invalid json", "{invalid json", nil, http.StatusBadRequest, domain.KindInvalidInput},
		{"unknown field", `{"name":"x","currency":"USD"}`, nil, http.StatusBadRequest, domain.KindInvalidInput},
		{"bad balance", `{"name":"x","balance":"1.234"}`, nil, http.StatusBadRequest, domain.KindInvalidAmount},
		{"duplicate slug", `{"name":"x","slug":"x"}`, domain.ErrDuplicateSlug, http.StatusConflict, domain.KindDuplicateSlug},
		{"invalid name", `{"name":" "}`, domain.ErrInvalidAccountName, http.StatusBadRequest, domain.KindInvalidInput},
		{"storage down", `{"name":"x"}`, domain.ErrStorageUnavailable, http.StatusServiceUnavailable, domain.KindStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(&accountServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
					if tt.err == nil {
						t.Fatal("CreateAccount should not be called for invalid payload")
					}
					return nil, tt.err
				},
			})

			rec := serve(http.MethodPost, "/accounts", "/accounts", strings.NewReader(tt.body), handler.Create)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}

			if resp := decodeError(t, rec); resp.Kind != string(tt.wantKind) {
				t.Fatalf("expected kind %s, got %+v", tt.wantKind, resp)
			}
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, key string) (*domain.Account, error) {
			if key == "alice" {
				return testAccount("Alice", "alice", "1"), nil
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, key)
		},
	})

	rec := serve(http.MethodGet, "/accounts/{key}", "/accounts/alice", nil, handler.Get)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(http.MethodGet, "/accounts/{key}", "/accounts/bob", nil, handler.Get)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_Upsert(t *testing.T) {
	var created bool
	var captured usecase.UpsertAccountInput

	handler := NewAccountHandler(&accountServiceStub{
		upsertFn: func(ctx context.Context, input usecase.UpsertAccountInput) (*domain.Account, bool, error) {
			captured = input
			return testAccount(input.Name, "savings", "100"), created, nil
		},
	})

	const id = "8d0c2d6e-5a55-4b7e-9d8f-0e4c1f1f1a2b"

	rec := serve(http.MethodPut, "/accounts/{key}", "/accounts/"+id,
		strings.NewReader(`{"name":"Savings","balance":"100"}`), handler.Upsert)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for update, got %d", rec.Code)
	}

	if captured.ID != id || captured.Name != "Savings" {
		t.Fatalf("unexpected input %+v", captured)
	}

	created = true
	rec = serve(http.MethodPut, "/accounts/{key}", "/accounts/"+id,
		strings.NewReader(`{"name":"Savings","balance":"100"}`), handler.Upsert)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for create, got %d", rec.Code)
	}
}

func TestAccountHandler_Delete(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		deleteFn: func(ctx context.Context, id string) error {
			if id == "busy" {
				return fmt.Errorf("%w: 3 transactions", domain.ErrAccountHasTransactions)
			}
			return nil
		},
	})

	rec := serve(http.MethodDelete, "/accounts/{key}", "/accounts/idle", nil, handler.Delete)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = serve(http.MethodDelete, "/accounts/{key}", "/accounts/busy", nil, handler.Delete)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAccountHandler_List(t *testing.T) {
	var listed, summarized domain.AccountFilter

	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
			listed = filter
			return slices.Values([]*domain.Account{testAccount("Alice", "alice", "10")}), nil
		},
		summaryFn: func(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
			summarized = filter
			return domain.AccountSummary{Count: 7, TotalBalance: decimal.RequireFromString("70.5")}, nil
		},
	})

	rec := serve(http.MethodGet, "/accounts", "/accounts?search=ali&limit=1&offset=2", nil, handler.List)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if listed.NameContains != "ali" || listed.Limit != 1 || listed.Offset != 2 {
		t.Fatalf("unexpected list filter %+v", listed)
	}

	if summarized.NameContains != "ali" {
		t.Fatalf("expected summary over the same search, got %+v", summarized)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Accounts) != 1 || resp.TotalAccounts != 7 || resp.TotalBalance != "70.50" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_List_DefaultPage(t *testing.T) {
	var listed domain.AccountFilter

	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
			listed = filter
			return slices.Values([]*domain.Account{}), nil
		},
		summaryFn: func(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
			return domain.AccountSummary{}, nil
		},
	})

	serve(http.MethodGet, "/accounts", "/accounts", nil, handler.List)

	if listed.Limit != usecase.DefaultPageSize {
		t.Fatalf("expected default page size, got %d", listed.Limit)
	}
}

func TestAccountHandler_List_ReportsClampedLimit(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
			return slices.Values([]*domain.Account{}), nil
		},
		summaryFn: func(ctx context.Context, filter domain.AccountFilter) (domain.AccountSummary, error) {
			return domain.AccountSummary{}, nil
		},
	})

	rec := serve(http.MethodGet, "/accounts", "/accounts?limit=5000&offset=-3", nil, handler.List)

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Limit != usecase.MaxPageSize || resp.Offset != 0 {
		t.Fatalf("expected limit %d offset 0, got %d/%d", usecase.MaxPageSize, resp.Limit, resp.Offset)
	}
}

func TestAccountHandler_Export(t *testing.T) {
	var listed domain.AccountFilter

	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
			listed = filter
			return slices.Values([]*domain.Account{testAccount("Smith, Jane", "smith-jane", "12.5")}), nil
		},
	})

	rec := serve(http.MethodGet, "/accounts/export", "/accounts/export?search=smith", nil, handler.Export)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if listed.NameContains != "smith" || listed.Limit != 0 {
		t.Fatalf("expected unpaged export filtered by search, got %+v", listed)
	}

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}

	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "accounts.csv") {
		t.Fatalf("expected attachment filename, got %q", cd)
	}

	want := "ID,Name,Balance\n8d0c2d6e-5a55-4b7e-9d8f-0e4c1f1f1a2b,\"Smith, Jane\",12.50\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAccountHandler_Export_Error(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter domain.AccountFilter) (iter.Seq[*domain.Account], error) {
			return nil, fmt.Errorf("boom")
		},
	})

	rec := serve(http.MethodGet, "/accounts/export", "/accounts/export", nil, handler.Export)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAccountHandler_Search(t *testing.T) {
	var gotQuery string

	handler := NewAccountHandler(&accountServiceStub{
		searchFn: func(ctx context.Context, query string, limit int) (iter.Seq[*domain.Account], error) {
			gotQuery = query
			return slices.Values([]*domain.Account{testAccount("Alice", "alice", "1")}), nil
		},
	})

	rec := serve(http.MethodGet, "/accounts/search", "/accounts/search?q=ALI", nil, handler.Search)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if gotQuery != "ALI" {
		t.Fatalf("expected query to pass through, got %q", gotQuery)
	}

	var resp dto.SearchAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Accounts) != 1 {
		t.Fatalf("unexpected response %q: %v", rec.Body.String(), err)
	}
}
