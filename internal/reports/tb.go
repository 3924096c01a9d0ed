package reports

import (
	"math"
	"sort"
)

// TrialBalanceAccount is a row inside a trial balance group.
type TrialBalanceAccount struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Debit  float64 `json:"debit_total"`
	Credit float64 `json:"credit_total"`
}

// TrialBalanceGroup aggregates accounts sharing a code prefix.
type TrialBalanceGroup struct {
	Key      string                `json:"key"`
	Accounts []TrialBalanceAccount `json:"accounts"`
	Debit    float64               `json:"debit_total"`
	Credit   float64               `json:"credit_total"`
}

// TrialBalance is the structured trial balance response.
type TrialBalance struct {
	Groups      []TrialBalanceGroup `json:"groups"`
	TotalDebit  float64             `json:"total_debit"`
	TotalCredit float64             `json:"total_credit"`
	Balanced    bool                `json:"balanced"`
}

// BuildTrialBalance converts account balances into grouped trial balance
// data. Accounts with no movement are skipped.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range balances {
		if acc.Debit == 0 && acc.Credit == 0 {
			continue
		}
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{Code: acc.Code, Name: acc.Name, Debit: acc.Debit, Credit: acc.Credit}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit += row.Debit
		grp.Credit += row.Credit
	}

	sort.Strings(keys)
	result := TrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit += grp.Debit
		result.TotalCredit += grp.Credit
	}
	result.Balanced = math.Abs(result.TotalDebit-result.TotalCredit) < 0.01
	return result
}
