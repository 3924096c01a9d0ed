package reports

import (
	"strings"

	"github.com/meridian-books/meridian-books/internal/accounts"
)

// AccountBalance models one chart-of-accounts row with debit and credit
// sums aggregated from approved journal entries.
type AccountBalance struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Debit     float64              `json:"debit_total"`
	Credit    float64              `json:"credit_total"`
}

// Balance returns the signed balance by the account's normal side:
// debit minus credit for asset and expense accounts, credit minus debit
// for liability, equity and revenue accounts.
func (a AccountBalance) Balance() float64 {
	if a.Type.DebitNormal() {
		return a.Debit - a.Credit
	}
	return a.Credit - a.Debit
}

// GroupKey returns the code prefix used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}
