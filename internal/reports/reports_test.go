package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/meridian-books/meridian-books/internal/accounts"
)

func TestBuildTrialBalance(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 200, Credit: 150},
		{Code: "1001", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 100, Credit: 50},
		{Code: "2000", Name: "Accounts Payable", Type: accounts.AccountTypeLiability, Debit: 10, Credit: 110},
		{Code: "3000", Name: "Dormant", Type: accounts.AccountTypeEquity},
	}

	tb := BuildTrialBalance(balances)
	if len(tb.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(tb.Groups))
	}
	if tb.TotalDebit != 310 {
		t.Fatalf("unexpected total debit: %v", tb.TotalDebit)
	}
	if tb.TotalCredit != 310 {
		t.Fatalf("unexpected total credit: %v", tb.TotalCredit)
	}
	if !tb.Balanced {
		t.Fatal("expected balanced trial balance")
	}
	if tb.Groups[0].Key != "10" || len(tb.Groups[0].Accounts) != 2 {
		t.Fatalf("unexpected first group: %+v", tb.Groups[0])
	}
}

func TestBuildTrialBalanceFlagsImbalance(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 200},
	})
	if tb.Balanced {
		t.Fatal("expected imbalance flag")
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	balances := []AccountBalance{
		{Code: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, Credit: 1200},
		{Code: "5000", Name: "COGS", Type: accounts.AccountTypeExpense, Debit: 300},
		{Code: "5100", Name: "Marketing", Type: accounts.AccountTypeExpense, Debit: 200},
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 700},
	}

	pl := BuildIncomeStatement(balances)
	if pl.Revenue.Total != 1200 {
		t.Fatalf("expected revenue total 1200 got %v", pl.Revenue.Total)
	}
	if pl.Expense.Total != 500 {
		t.Fatalf("expected expense total 500 got %v", pl.Expense.Total)
	}
	if pl.NetIncome != 700 {
		t.Fatalf("expected net income 700 got %v", pl.NetIncome)
	}
}

func TestBuildBalanceSheetFoldsEarningsIntoEquity(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 1000, Credit: 200},
		{Code: "2000", Name: "AP", Type: accounts.AccountTypeLiability, Debit: 0, Credit: 300},
		{Code: "3000", Name: "Share Capital", Type: accounts.AccountTypeEquity, Credit: 400},
		{Code: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, Credit: 150},
		{Code: "5000", Name: "Rent", Type: accounts.AccountTypeExpense, Debit: 50},
	}

	bs := BuildBalanceSheet(balances)
	if bs.Assets.Total != 800 {
		t.Fatalf("expected assets 800 got %v", bs.Assets.Total)
	}
	if bs.Liabilities.Total != 300 {
		t.Fatalf("expected liabilities 300 got %v", bs.Liabilities.Total)
	}
	if bs.Equity.Total != 500 {
		t.Fatalf("expected equity 500 got %v", bs.Equity.Total)
	}
	if bs.TotalLiabilitiesAndEquity != bs.Assets.Total {
		t.Fatalf("balance sheet out of balance: %v vs %v", bs.TotalLiabilitiesAndEquity, bs.Assets.Total)
	}
}

func TestBuildGeneralLedgerRunningBalance(t *testing.T) {
	account := AccountBalance{AccountID: 1, Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset}
	movements := []LedgerMovement{
		{EntryNumber: "JE-1", Debit: 500},
		{EntryNumber: "JE-2", Credit: 200},
	}

	ledger := BuildGeneralLedger(account, 100, movements)
	if ledger.Rows[0].Balance != 600 {
		t.Fatalf("expected running balance 600 got %v", ledger.Rows[0].Balance)
	}
	if ledger.ClosingBalance != 400 {
		t.Fatalf("expected closing 400 got %v", ledger.ClosingBalance)
	}
}

func TestBuildGeneralLedgerCreditNormal(t *testing.T) {
	account := AccountBalance{AccountID: 2, Code: "2000", Name: "AP", Type: accounts.AccountTypeLiability}
	movements := []LedgerMovement{
		{EntryNumber: "JE-1", Credit: 300},
		{EntryNumber: "JE-2", Debit: 100},
	}

	ledger := BuildGeneralLedger(account, 0, movements)
	if ledger.ClosingBalance != 200 {
		t.Fatalf("expected closing 200 got %v", ledger.ClosingBalance)
	}
}

func TestBuildCashBookTotals(t *testing.T) {
	book := BuildCashBook(50, []LedgerMovement{
		{EntryNumber: "JE-1", Debit: 100},
		{EntryNumber: "JE-2", Credit: 30},
	})
	if book.TotalIn != 100 || book.TotalOut != 30 {
		t.Fatalf("unexpected totals: in=%v out=%v", book.TotalIn, book.TotalOut)
	}
	if book.ClosingBalance != 120 {
		t.Fatalf("expected closing 120 got %v", book.ClosingBalance)
	}
}

func TestBuildAgingBuckets(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []OpenItem{
		{PartnerID: 1, PartnerName: "Acme", EntryDate: asOf.AddDate(0, 0, -10), Amount: 100},
		{PartnerID: 1, PartnerName: "Acme", EntryDate: asOf.AddDate(0, 0, -45), Amount: 200},
		{PartnerID: 2, PartnerName: "Globex", EntryDate: asOf.AddDate(0, 0, -120), Amount: 300},
		{PartnerID: 3, PartnerName: "Settled", EntryDate: asOf.AddDate(0, 0, -5), Amount: 0},
	}

	report := BuildAging(asOf, items)
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}
	acme := report.Rows[0]
	if acme.Current != 100 || acme.Days31to60 != 200 || acme.Total != 300 {
		t.Fatalf("unexpected acme buckets: %+v", acme)
	}
	globex := report.Rows[1]
	if globex.Over90 != 300 {
		t.Fatalf("expected over-90 bucket 300 got %v", globex.Over90)
	}
	if report.Total.Total != 600 {
		t.Fatalf("expected grand total 600 got %v", report.Total.Total)
	}
}

func TestBuildCashflowNet(t *testing.T) {
	points := BuildCashflow([]CashflowPoint{{Month: "2026-01", In: 500, Out: 200}})
	if points[0].Net != 300 {
		t.Fatalf("expected net 300 got %v", points[0].Net)
	}
}

func TestWriteTrialBalanceCSV(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 1500.5},
		{Code: "2000", Name: "AP", Type: accounts.AccountTypeLiability, Credit: 1500.5},
	})

	var buf bytes.Buffer
	if err := WriteTrialBalanceCSV(&buf, tb); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "group,code,name,debit,credit") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "Cash") || !strings.Contains(out, "Total") {
		t.Fatalf("missing rows: %q", out)
	}
}
