package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable record of money moved from one account to
// another.
type Transaction struct {
	ID         string
	Seq        int64
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
	Date       time.Time
	CreatedAt  time.Time
}

// Validate validates the parties and amount.
func (t *Transaction) Validate() error {
	if t.SenderID == t.ReceiverID {
		return ErrSelfTransfer
	}

	if _, err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	return nil
}

// Involves reports whether accountID is the sender or the receiver.
func (t *Transaction) Involves(accountID string) bool {
	return t.SenderID == accountID || t.ReceiverID == accountID
}

// Before reports whether t sorts ahead of other in the canonical order:
// newest date first, later insertion first on equal dates.
func (t *Transaction) Before(other *Transaction) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.After(other.Date)
	}

	return t.Seq > other.Seq
}

// TransactionFilter narrows transaction listings. An empty AccountID matches
// every transaction; a zero Limit means no limit. A non-empty PartyName keeps
// transactions whose sender or receiver name contains it, ignoring case.
type TransactionFilter struct {
	AccountID string
	PartyName string
	Limit     int
	Offset    int
}
