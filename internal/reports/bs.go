package reports

import (
	"sort"

	"github.com/meridian-books/meridian-books/internal/accounts"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    float64               `json:"total"`
}

// BalanceSheet is the structured balance sheet response. Undistributed
// profit of the reporting window is folded into equity so that assets
// equal liabilities plus equity.
type BalanceSheet struct {
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalLiabilitiesAndEquity float64             `json:"total_liabilities_and_equity"`
}

// BuildBalanceSheet aggregates balances into assets, liabilities, and equity.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}
	var earnings float64

	for _, acc := range balances {
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: acc.Balance()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total += row.Balance
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total += row.Balance
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total += row.Balance
		case accounts.AccountTypeRevenue:
			earnings += acc.Balance()
		case accounts.AccountTypeExpense:
			earnings -= acc.Balance()
		}
	}

	if earnings != 0 {
		equity.Accounts = append(equity.Accounts, BalanceSheetAccount{Name: "Current period earnings", Balance: earnings})
		equity.Total += earnings
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: liabilities.Total + equity.Total,
	}
}
