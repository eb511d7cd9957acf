package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account. ID and
// Slug are optional; Balance defaults to zero.
type CreateAccountRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	Balance string `json:"balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	balance, err := parseOptionalMoney(r.Balance)
	if err != nil {
		return usecase.CreateAccountInput{}, fmt.Errorf("balance: %w", err)
	}

	return usecase.CreateAccountInput{
		ID:      r.ID,
		Name:    r.Name,
		Slug:    r.Slug,
		Balance: balance,
	}, nil
}

// UpsertAccountRequest represents a request to create or replace the account
// under the ID in the path.
type UpsertAccountRequest struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// ToUseCaseInput converts to use case input.
func (r *UpsertAccountRequest) ToUseCaseInput(id string) (usecase.UpsertAccountInput, error) {
	balance, err := parseOptionalMoney(r.Balance)
	if err != nil {
		return usecase.UpsertAccountInput{}, fmt.Errorf("balance: %w", err)
	}

	return usecase.UpsertAccountInput{
		ID:      id,
		Name:    r.Name,
		Balance: balance,
	}, nil
}

// CreateTransactionRequest represents a request to move money between two
// accounts. Amount is a decimal string with at most two fractional digits.
type CreateTransactionRequest struct {
	Sender   string     `json:"sender"`
	Receiver string     `json:"receiver"`
	Amount   string     `json:"amount"`
	Date     *time.Time `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.TransferInput, error) {
	amount, err := domain.ParseMoney(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, fmt.Errorf("amount: %w", err)
	}

	return usecase.TransferInput{
		SenderID:   r.Sender,
		ReceiverID: r.Receiver,
		Amount:     amount,
		Date:       r.Date,
	}, nil
}

func parseOptionalMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}

	return domain.ParseMoney(s)
}
