package reports

import (
	"time"

	"github.com/meridian-books/meridian-books/internal/accounts"
)

// LedgerMovement is one approved journal line touching an account, as
// fetched from the store in entry date order.
type LedgerMovement struct {
	EntryID     int64     `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
	EntryDate   time.Time `json:"entry_date"`
	Description string    `json:"description"`
	AccountCode string    `json:"account_code,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	Debit       float64   `json:"debit_amount"`
	Credit      float64   `json:"credit_amount"`
}

// LedgerRow is a movement with the running balance after applying it.
type LedgerRow struct {
	LedgerMovement
	Balance float64 `json:"balance"`
}

// GeneralLedger is the per-account ledger response.
type GeneralLedger struct {
	AccountID      int64                `json:"account_id"`
	Code           string               `json:"code"`
	Name           string               `json:"name"`
	Type           accounts.AccountType `json:"type"`
	OpeningBalance float64              `json:"opening_balance"`
	Rows           []LedgerRow          `json:"rows"`
	ClosingBalance float64              `json:"closing_balance"`
}

// BuildGeneralLedger applies movements to the opening balance in order,
// signing each movement by the account's normal side.
func BuildGeneralLedger(account AccountBalance, opening float64, movements []LedgerMovement) GeneralLedger {
	ledger := GeneralLedger{
		AccountID:      account.AccountID,
		Code:           account.Code,
		Name:           account.Name,
		Type:           account.Type,
		OpeningBalance: opening,
	}
	balance := opening
	for _, m := range movements {
		if account.Type.DebitNormal() {
			balance += m.Debit - m.Credit
		} else {
			balance += m.Credit - m.Debit
		}
		ledger.Rows = append(ledger.Rows, LedgerRow{LedgerMovement: m, Balance: balance})
	}
	ledger.ClosingBalance = balance
	return ledger
}

// CashBook is the combined ledger of all cash accounts. Cash accounts are
// debit normal, so inflows are debits.
type CashBook struct {
	OpeningBalance float64     `json:"opening_balance"`
	Rows           []LedgerRow `json:"rows"`
	TotalIn        float64     `json:"total_in"`
	TotalOut       float64     `json:"total_out"`
	ClosingBalance float64     `json:"closing_balance"`
}

// BuildCashBook computes a running cash balance across movements of all
// cash accounts, ordered by entry date.
func BuildCashBook(opening float64, movements []LedgerMovement) CashBook {
	book := CashBook{OpeningBalance: opening}
	balance := opening
	for _, m := range movements {
		balance += m.Debit - m.Credit
		book.TotalIn += m.Debit
		book.TotalOut += m.Credit
		book.Rows = append(book.Rows, LedgerRow{LedgerMovement: m, Balance: balance})
	}
	book.ClosingBalance = balance
	return book
}
