package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IntegrityChecker verifies that approved entries keep every period in
// debit/credit balance across the whole store.
type IntegrityChecker struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewIntegrityChecker constructs an IntegrityChecker.
func NewIntegrityChecker(db *pgxpool.Pool, logger *slog.Logger) *IntegrityChecker {
	return &IntegrityChecker{db: db, logger: logger}
}

// Run sums approved debits and credits per organization and period and
// logs any imbalance. An imbalance means an invariant was bypassed at
// the store level and needs manual investigation.
func (c *IntegrityChecker) Run(ctx context.Context) error {
	rows, err := c.db.Query(ctx, `
SELECT e.org_id, e.accounting_period_id,
       COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_entries e
JOIN journal_entry_lines l ON l.journal_entry_id = e.id
WHERE e.status = 'approved'
GROUP BY e.org_id, e.accounting_period_id
HAVING ABS(SUM(l.debit_amount) - SUM(l.credit_amount)) >= 0.01`)
	if err != nil {
		return err
	}
	defer rows.Close()

	anomalies := 0
	for rows.Next() {
		var orgID, periodID int64
		var debit, credit float64
		if err := rows.Scan(&orgID, &periodID, &debit, &credit); err != nil {
			return err
		}
		anomalies++
		c.logger.Error("ledger imbalance detected",
			slog.Int64("org_id", orgID),
			slog.Int64("period_id", periodID),
			slog.Float64("debit_total", debit),
			slog.Float64("credit_total", credit),
			slog.Float64("difference", debit-credit))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.logger.Info("ledger integrity check finished", slog.Int("anomalies", anomalies))
	return nil
}

// Handler adapts Run to an asynq task handler.
func (c *IntegrityChecker) Handler() asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return c.Run(ctx)
	}
}
