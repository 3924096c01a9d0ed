package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-books/meridian-books/internal/partners"
	"github.com/meridian-books/meridian-books/internal/periods"
	"github.com/meridian-books/meridian-books/internal/shared"
)

// Guard authorizes an operation for a user within an organization.
type Guard interface {
	Guard(ctx context.Context, userID, orgID int64, op shared.Operation) error
}

// PeriodSource resolves accounting periods for period-scoped reports.
type PeriodSource interface {
	Get(ctx context.Context, orgID, id int64) (periods.Period, error)
}

// Service coordinates report query execution with the cache layer.
type Service struct {
	repo    Repository
	guard   Guard
	periods PeriodSource
	cache   *Cache
	now     func() time.Time
}

// NewService wires the repository, authorization and cache helpers.
func NewService(repo Repository, guard Guard, periodSource PeriodSource, cache *Cache) *Service {
	return &Service{repo: repo, guard: guard, periods: periodSource, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Invalidate bumps the org's report cache version.
func (s *Service) Invalidate(ctx context.Context, orgID int64) error {
	return s.cache.Bump(ctx, orgID)
}

const dateKey = "2006-01-02"

// TrialBalance builds the grouped trial balance for one accounting period.
func (s *Service) TrialBalance(ctx context.Context, actorID, orgID, periodID int64) (TrialBalance, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return TrialBalance{}, err
	}
	period, err := s.periods.Get(ctx, orgID, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cached(ctx, orgID, &tb,
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.Balances(ctx, orgID, period.StartDate, period.EndDate)
			if err != nil {
				return nil, err
			}
			return BuildTrialBalance(balances), nil
		},
		"tb", period.StartDate.Format(dateKey), period.EndDate.Format(dateKey))
	return tb, err
}

// BalanceSheet builds the cumulative balance sheet as of a date.
func (s *Service) BalanceSheet(ctx context.Context, actorID, orgID int64, asOf time.Time) (BalanceSheet, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err := s.cached(ctx, orgID, &bs,
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.BalancesAsOf(ctx, orgID, asOf)
			if err != nil {
				return nil, err
			}
			return BuildBalanceSheet(balances), nil
		},
		"bs", asOf.Format(dateKey))
	return bs, err
}

// IncomeStatement builds the profit and loss for a date range.
func (s *Service) IncomeStatement(ctx context.Context, actorID, orgID int64, from, to time.Time) (IncomeStatement, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return IncomeStatement{}, err
	}
	var pl IncomeStatement
	err := s.cached(ctx, orgID, &pl,
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.Balances(ctx, orgID, from, to)
			if err != nil {
				return nil, err
			}
			return BuildIncomeStatement(balances), nil
		},
		"pl", from.Format(dateKey), to.Format(dateKey))
	return pl, err
}

// GeneralLedger builds one account's ledger with a running balance.
func (s *Service) GeneralLedger(ctx context.Context, actorID, orgID, accountID int64, from, to time.Time) (GeneralLedger, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return GeneralLedger{}, err
	}
	account, err := s.repo.AccountBalance(ctx, orgID, accountID, from, to)
	if err != nil {
		return GeneralLedger{}, err
	}
	debit, credit, err := s.repo.OpeningBalance(ctx, orgID, accountID, from)
	if err != nil {
		return GeneralLedger{}, err
	}
	opening := debit - credit
	if !account.Type.DebitNormal() {
		opening = credit - debit
	}
	movements, err := s.repo.LedgerMovements(ctx, orgID, accountID, from, to)
	if err != nil {
		return GeneralLedger{}, err
	}
	return BuildGeneralLedger(account, opening, movements), nil
}

// CashBook builds the combined ledger of all cash accounts.
func (s *Service) CashBook(ctx context.Context, actorID, orgID int64, from, to time.Time) (CashBook, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return CashBook{}, err
	}
	opening, err := s.repo.CashOpening(ctx, orgID, from)
	if err != nil {
		return CashBook{}, err
	}
	movements, err := s.repo.CashMovements(ctx, orgID, from, to)
	if err != nil {
		return CashBook{}, err
	}
	return BuildCashBook(opening, movements), nil
}

// Cashflow builds monthly cash in/out movement across a date range.
func (s *Service) Cashflow(ctx context.Context, actorID, orgID int64, from, to time.Time) ([]CashflowPoint, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return nil, err
	}
	var points []CashflowPoint
	err := s.cached(ctx, orgID, &points,
		func(ctx context.Context) (any, error) {
			rows, err := s.repo.MonthlyCashflow(ctx, orgID, from, to)
			if err != nil {
				return nil, err
			}
			return BuildCashflow(rows), nil
		},
		"cashflow", from.Format(dateKey), to.Format(dateKey))
	return points, err
}

// ARAging buckets open customer balances by age.
func (s *Service) ARAging(ctx context.Context, actorID, orgID int64, asOf time.Time) (AgingReport, error) {
	return s.aging(ctx, actorID, orgID, partners.KindCustomer, asOf)
}

// APAging buckets open vendor balances by age.
func (s *Service) APAging(ctx context.Context, actorID, orgID int64, asOf time.Time) (AgingReport, error) {
	return s.aging(ctx, actorID, orgID, partners.KindVendor, asOf)
}

func (s *Service) aging(ctx context.Context, actorID, orgID int64, kind partners.Kind, asOf time.Time) (AgingReport, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return AgingReport{}, err
	}
	if asOf.IsZero() {
		asOf = s.now().UTC().Truncate(24 * time.Hour)
	}
	var report AgingReport
	err := s.cached(ctx, orgID, &report,
		func(ctx context.Context) (any, error) {
			items, err := s.repo.OpenItems(ctx, orgID, kind, asOf)
			if err != nil {
				return nil, err
			}
			return BuildAging(asOf, items), nil
		},
		"aging", string(kind), asOf.Format(dateKey))
	return report, err
}

// Summary is the combined financial overview for one accounting period.
type Summary struct {
	Period          periods.Period  `json:"period"`
	IncomeStatement IncomeStatement `json:"income_statement"`
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
	Cashflow        []CashflowPoint `json:"cashflow"`
}

// FinancialSummary assembles the period's income statement, closing
// balance sheet and cash movement concurrently.
func (s *Service) FinancialSummary(ctx context.Context, actorID, orgID, periodID int64) (Summary, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpReportView); err != nil {
		return Summary{}, err
	}
	period, err := s.periods.Get(ctx, orgID, periodID)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Period: period}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pl, err := s.IncomeStatement(ctx, actorID, orgID, period.StartDate, period.EndDate)
		if err == nil {
			summary.IncomeStatement = pl
		}
		return err
	})
	g.Go(func() error {
		bs, err := s.BalanceSheet(ctx, actorID, orgID, period.EndDate)
		if err == nil {
			summary.BalanceSheet = bs
		}
		return err
	})
	g.Go(func() error {
		points, err := s.Cashflow(ctx, actorID, orgID, period.StartDate, period.EndDate)
		if err == nil {
			summary.Cashflow = points
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (s *Service) cached(ctx context.Context, orgID int64, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, orgID, parts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}
