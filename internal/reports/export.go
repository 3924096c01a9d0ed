package reports

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteTrialBalanceCSV streams a trial balance as CSV with grouped
// digit formatting for amounts.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	printer := message.NewPrinter(language.English)
	amount := func(v float64) string {
		return printer.Sprintf("%.2f", v)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "code", "name", "debit", "credit"}); err != nil {
		return err
	}
	for _, grp := range tb.Groups {
		for _, acc := range grp.Accounts {
			if err := cw.Write([]string{grp.Key, acc.Code, acc.Name, amount(acc.Debit), amount(acc.Credit)}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{grp.Key, "", "Subtotal", amount(grp.Debit), amount(grp.Credit)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"", "", "Total", amount(tb.TotalDebit), amount(tb.TotalCredit)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
