package reports

import (
	"sort"

	"github.com/meridian-books/meridian-books/internal/accounts"
)

// IncomeStatementAccount represents a revenue or expense account summary.
type IncomeStatementAccount struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string                   `json:"label"`
	Accounts []IncomeStatementAccount `json:"accounts"`
	Total    float64                  `json:"total"`
}

// IncomeStatement contains the structured profit and loss output.
type IncomeStatement struct {
	Revenue   IncomeStatementSection `json:"revenue"`
	Expense   IncomeStatementSection `json:"expense"`
	NetIncome float64                `json:"net_income"`
}

// BuildIncomeStatement aggregates revenue and expense balances. Amounts
// follow each side's normal balance, so both sections read positive in
// the common case.
func BuildIncomeStatement(balances []AccountBalance) IncomeStatement {
	revenue := IncomeStatementSection{Label: "Revenue"}
	expense := IncomeStatementSection{Label: "Expense"}

	for _, acc := range balances {
		row := IncomeStatementAccount{Code: acc.Code, Name: acc.Name, Amount: acc.Balance()}
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total += row.Amount
		case accounts.AccountTypeExpense:
			expense.Accounts = append(expense.Accounts, row)
			expense.Total += row.Amount
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	return IncomeStatement{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total - expense.Total,
	}
}
