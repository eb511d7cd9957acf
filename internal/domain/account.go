package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a named holder of a balance.
type Account struct {
	ID        string
	Name      string
	Slug      string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// String returns the display name.
func (a *Account) String() string {
	return a.Name
}

// Clone returns a copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	cp := *a

	return &cp
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s is below %s", ErrInsufficientFunds, FormatMoney(a.Balance), FormatMoney(amount))
	}

	return nil
}

// ValidateCredit checks if account can be credited by amount.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	if a.Balance.Add(amount).GreaterThan(MaxMoney) {
		return fmt.Errorf("%w: credit would push balance past %s", ErrInvalidAmount, FormatMoney(MaxMoney))
	}

	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// AccountFilter narrows account listings. A zero Limit means no limit.
type AccountFilter struct {
	NameContains string
	Limit        int
	Offset       int
}

// AccountSummary aggregates the accounts matched by a filter.
type AccountSummary struct {
	Count        int64
	TotalBalance decimal.Decimal
}
