package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/partners"
	"github.com/meridian-books/meridian-books/internal/shared"
)

// Repository reads aggregated ledger data. Only approved journal entries
// contribute to any report.
type Repository interface {
	Balances(ctx context.Context, orgID int64, from, to time.Time) ([]AccountBalance, error)
	BalancesAsOf(ctx context.Context, orgID int64, asOf time.Time) ([]AccountBalance, error)
	AccountBalance(ctx context.Context, orgID, accountID int64, from, to time.Time) (AccountBalance, error)
	OpeningBalance(ctx context.Context, orgID, accountID int64, before time.Time) (float64, float64, error)
	LedgerMovements(ctx context.Context, orgID, accountID int64, from, to time.Time) ([]LedgerMovement, error)
	CashOpening(ctx context.Context, orgID int64, before time.Time) (float64, error)
	CashMovements(ctx context.Context, orgID int64, from, to time.Time) ([]LedgerMovement, error)
	MonthlyCashflow(ctx context.Context, orgID int64, from, to time.Time) ([]CashflowPoint, error)
	OpenItems(ctx context.Context, orgID int64, kind partners.Kind, asOf time.Time) ([]OpenItem, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Lines of non-approved or out-of-window entries leave e.id NULL after
// the join, so the sums must be guarded rather than plain.
const balancesQuery = `
SELECT a.id, a.code, a.name, a.type,
       COALESCE(SUM(CASE WHEN e.id IS NOT NULL THEN l.debit_amount END), 0),
       COALESCE(SUM(CASE WHEN e.id IS NOT NULL THEN l.credit_amount END), 0)
FROM accounts a
LEFT JOIN journal_entry_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.journal_entry_id
    AND e.status = 'approved' AND e.entry_date >= $2 AND e.entry_date <= $3
WHERE a.org_id = $1
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`

func (r *repository) Balances(ctx context.Context, orgID int64, from, to time.Time) ([]AccountBalance, error) {
	return r.scanBalances(ctx, balancesQuery, orgID, from, to)
}

func (r *repository) BalancesAsOf(ctx context.Context, orgID int64, asOf time.Time) ([]AccountBalance, error) {
	// Balance sheet figures accumulate from the beginning of time.
	return r.scanBalances(ctx, balancesQuery, orgID, time.Time{}, asOf)
}

func (r *repository) scanBalances(ctx context.Context, query string, args ...any) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) AccountBalance(ctx context.Context, orgID, accountID int64, from, to time.Time) (AccountBalance, error) {
	var b AccountBalance
	err := r.db.QueryRow(ctx, `
SELECT a.id, a.code, a.name, a.type,
       COALESCE(SUM(CASE WHEN e.id IS NOT NULL THEN l.debit_amount END), 0),
       COALESCE(SUM(CASE WHEN e.id IS NOT NULL THEN l.credit_amount END), 0)
FROM accounts a
LEFT JOIN journal_entry_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.journal_entry_id
    AND e.status = 'approved' AND e.entry_date >= $3 AND e.entry_date <= $4
WHERE a.org_id = $1 AND a.id = $2
GROUP BY a.id, a.code, a.name, a.type`, orgID, accountID, from, to).
		Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountBalance{}, shared.ErrNotFound
		}
		return AccountBalance{}, err
	}
	return b, nil
}

func (r *repository) OpeningBalance(ctx context.Context, orgID, accountID int64, before time.Time) (float64, float64, error) {
	var debit, credit float64
	err := r.db.QueryRow(ctx, `
SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE e.org_id = $1 AND l.account_id = $2 AND e.status = 'approved' AND e.entry_date < $3`,
		orgID, accountID, before).Scan(&debit, &credit)
	return debit, credit, err
}

const movementsQuery = `
SELECT e.id, e.entry_number, e.entry_date, e.description,
       a.code, a.name, l.debit_amount, l.credit_amount
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.org_id = $1 AND e.status = 'approved'
  AND e.entry_date >= $2 AND e.entry_date <= $3`

func (r *repository) LedgerMovements(ctx context.Context, orgID, accountID int64, from, to time.Time) ([]LedgerMovement, error) {
	return r.scanMovements(ctx,
		movementsQuery+` AND l.account_id = $4 ORDER BY e.entry_date, e.id, l.line_number`,
		orgID, from, to, accountID)
}

func (r *repository) CashMovements(ctx context.Context, orgID int64, from, to time.Time) ([]LedgerMovement, error) {
	return r.scanMovements(ctx,
		movementsQuery+` AND a.category = 'cash' ORDER BY e.entry_date, e.id, l.line_number`,
		orgID, from, to)
}

func (r *repository) scanMovements(ctx context.Context, query string, args ...any) ([]LedgerMovement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []LedgerMovement
	for rows.Next() {
		var m LedgerMovement
		if err := rows.Scan(&m.EntryID, &m.EntryNumber, &m.EntryDate, &m.Description,
			&m.AccountCode, &m.AccountName, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *repository) CashOpening(ctx context.Context, orgID int64, before time.Time) (float64, error) {
	var debit, credit float64
	err := r.db.QueryRow(ctx, `
SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.org_id = $1 AND e.status = 'approved' AND a.category = 'cash' AND e.entry_date < $2`,
		orgID, before).Scan(&debit, &credit)
	if err != nil {
		return 0, err
	}
	return debit - credit, nil
}

func (r *repository) MonthlyCashflow(ctx context.Context, orgID int64, from, to time.Time) ([]CashflowPoint, error) {
	rows, err := r.db.Query(ctx, `
SELECT to_char(e.entry_date, 'YYYY-MM') AS month,
       COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.org_id = $1 AND e.status = 'approved' AND a.category = 'cash'
  AND e.entry_date >= $2 AND e.entry_date <= $3
GROUP BY month
ORDER BY month`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []CashflowPoint
	for rows.Next() {
		var p CashflowPoint
		if err := rows.Scan(&p.Month, &p.In, &p.Out); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *repository) OpenItems(ctx context.Context, orgID int64, kind partners.Kind, asOf time.Time) ([]OpenItem, error) {
	// Receivables are debit residuals against customers, payables are
	// credit residuals against vendors.
	amount := `SUM(l.debit_amount - l.credit_amount)`
	if kind == partners.KindVendor {
		amount = `SUM(l.credit_amount - l.debit_amount)`
	}
	rows, err := r.db.Query(ctx, `
SELECT p.id, p.name, e.entry_date, `+amount+` AS amount
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN partners p ON p.id = l.partner_id
WHERE e.org_id = $1 AND e.status = 'approved' AND p.kind = $2 AND e.entry_date <= $3
GROUP BY p.id, p.name, e.entry_date
HAVING `+amount+` <> 0
ORDER BY e.entry_date`, orgID, kind, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OpenItem
	for rows.Next() {
		var item OpenItem
		if err := rows.Scan(&item.PartnerID, &item.PartnerName, &item.EntryDate, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
