package tabular

import (
	"encoding/csv"
	"io"
	"iter"

	"github.com/iho/acctledger/internal/domain"
)

// ExportHeader is the header row written by WriteAccountRows.
var ExportHeader = []string{"ID", "Name", "Balance"}

// WriteAccountRows writes accounts as CSV with the ID, Name and Balance
// columns that ReadAccountRows accepts. Balances carry two decimals.
func WriteAccountRows(w io.Writer, accounts iter.Seq[*domain.Account]) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ExportHeader); err != nil {
		return err
	}

	for account := range accounts {
		if err := writer.Write([]string{account.ID, account.Name, domain.FormatMoney(account.Balance)}); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}
