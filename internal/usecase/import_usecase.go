package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/acctledger/internal/domain"
)

// ImportStatus is the outcome of one import row.
type ImportStatus string

const (
	ImportStatusCreated ImportStatus = "created"
	ImportStatusUpdated ImportStatus = "updated"
	ImportStatusFailed  ImportStatus = "failed"
)

// ImportRow is one raw data row of an account import. Line is the 1-based
// line in the source file. Err is set when the row could not be decoded.
type ImportRow struct {
	Line    int
	ID      string
	Name    string
	Balance string
	Err     error
}

// RowResult is the outcome of importing one row.
type RowResult struct {
	Err       error
	Line      int
	Status    ImportStatus
	AccountID string
	Slug      string
}

// Kind returns the error kind of a failed row.
func (r RowResult) Kind() domain.Kind {
	return domain.KindOf(r.Err)
}

// ImportReport lists the outcome of every row in input order.
type ImportReport struct {
	Rows    []RowResult
	Created int
	Updated int
	Failed  int
}

func (r *ImportReport) add(res RowResult) {
	r.Rows = append(r.Rows, res)

	switch res.Status {
	case ImportStatusCreated:
		r.Created++
	case ImportStatusUpdated:
		r.Updated++
	default:
		r.Failed++
	}
}

// AccountWriter is the part of the account store the importer writes
// through.
type AccountWriter interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	UpsertAccount(ctx context.Context, input UpsertAccountInput) (*domain.Account, bool, error)
}

// ImportUseCase upserts accounts from tabular rows, one independent store
// transaction per row.
type ImportUseCase struct {
	accounts AccountWriter
	metrics  Metrics
	logger   zerolog.Logger
}

// ImportOption configures an ImportUseCase.
type ImportOption func(*ImportUseCase)

// WithImportMetrics records row outcomes on m.
func WithImportMetrics(m Metrics) ImportOption {
	return func(uc *ImportUseCase) {
		uc.metrics = m
	}
}

// WithImportLogger sets the logger for row failures.
func WithImportLogger(logger zerolog.Logger) ImportOption {
	return func(uc *ImportUseCase) {
		uc.logger = logger
	}
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(accounts AccountWriter, opts ...ImportOption) *ImportUseCase {
	uc := &ImportUseCase{
		accounts: accounts,
		metrics:  nopMetrics{},
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Import processes rows in order. A failing row never affects the others;
// each outcome is reported.
func (uc *ImportUseCase) Import(ctx context.Context, rows []ImportRow) *ImportReport {
	report := &ImportReport{Rows: make([]RowResult, 0, len(rows))}

	for _, row := range rows {
		var res RowResult
		if err := ctx.Err(); err != nil {
			res = failedRow(row, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err))
		} else {
			res = uc.importRow(ctx, row)
		}

		if res.Err != nil {
			uc.logger.Debug().
				Err(res.Err).
				Int("line", res.Line).
				Str("kind", string(res.Kind())).
				Msg("import row failed")
		}

		uc.metrics.ImportRowProcessed(res.Status)
		report.add(res)
	}

	return report
}

func (uc *ImportUseCase) importRow(ctx context.Context, row ImportRow) RowResult {
	if row.Err != nil {
		return failedRow(row, fmt.Errorf("%w: %w", domain.ErrMalformedRow, row.Err))
	}

	balance, err := domain.ParseMoney(row.Balance)
	if err == nil {
		balance, err = domain.ValidateBalance(balance)
	}

	if err != nil {
		return failedRow(row, fmt.Errorf("%w: balance: %w", domain.ErrMalformedRow, err))
	}

	name, err := domain.ValidateAccountName(row.Name)
	if err != nil {
		return failedRow(row, fmt.Errorf("%w: name: %w", domain.ErrMalformedRow, err))
	}

	rawID := strings.TrimSpace(row.ID)
	if rawID == "" {
		account, err := uc.accounts.CreateAccount(ctx, CreateAccountInput{Name: name, Balance: balance})
		if err != nil {
			return failedRow(row, err)
		}

		return RowResult{Line: row.Line, Status: ImportStatusCreated, AccountID: account.ID, Slug: account.Slug}
	}

	id, err := domain.ParseAccountID(rawID)
	if err != nil {
		return failedRow(row, fmt.Errorf("%w: id: %w", domain.ErrMalformedRow, err))
	}

	account, created, err := uc.accounts.UpsertAccount(ctx, UpsertAccountInput{ID: id, Name: name, Balance: balance})
	if err != nil {
		return failedRow(row, err)
	}

	status := ImportStatusUpdated
	if created {
		status = ImportStatusCreated
	}

	return RowResult{Line: row.Line, Status: status, AccountID: account.ID, Slug: account.Slug}
}

func failedRow(row ImportRow, err error) RowResult {
	return RowResult{Line: row.Line, Status: ImportStatusFailed, AccountID: strings.TrimSpace(row.ID), Err: err}
}
