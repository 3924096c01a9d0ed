package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Repository encapsulates DB operations for accounting periods.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Period, error)
	Get(ctx context.Context, orgID, id int64) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, orgID, id int64) (Period, error)
	RangeConflict(ctx context.Context, orgID int64, start, end time.Time, excludeID int64) (bool, error)
	Insert(ctx context.Context, in CreateInput) (Period, error)
	UpdateRange(ctx context.Context, p Period) (Period, error)
	SetClosed(ctx context.Context, p Period, closedBy int64, closedAt time.Time) (Period, error)
	SetOpen(ctx context.Context, p Period) (Period, error)
	Delete(ctx context.Context, orgID, id int64) error
	CountEntries(ctx context.Context, periodID int64) (int, error)
	CountNonFinalEntries(ctx context.Context, periodID int64) (int, error)
	CountEntriesOutsideRange(ctx context.Context, periodID int64, start, end time.Time) (int, error)
	CountOpenPeriods(ctx context.Context, orgID int64) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, org_id, name, start_date, end_date, is_closed, closed_at, closed_by, version, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.StartDate, &p.EndDate, &p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE org_id=$1 ORDER BY start_date`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE org_id=$1 AND id=$2`, orgID, id))
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, orgID, id int64) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, id))
}

// RangeConflict pre-checks overlap for a friendlier error. The daterange
// exclusion constraint remains the authoritative guard under concurrency.
func (r *txRepository) RangeConflict(ctx context.Context, orgID int64, start, end time.Time, excludeID int64) (bool, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods
WHERE org_id=$1 AND id <> $4 AND start_date <= $3 AND end_date >= $2`, orgID, start, end, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *txRepository) Insert(ctx context.Context, in CreateInput) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `INSERT INTO accounting_periods (org_id, name, start_date, end_date, is_closed, version)
VALUES ($1,$2,$3,$4,FALSE,1) RETURNING `+periodColumns, in.OrgID, in.Name, in.StartDate, in.EndDate))
	if err != nil {
		return Period{}, mapExclusion(err)
	}
	return p, nil
}

func (r *txRepository) UpdateRange(ctx context.Context, p Period) (Period, error) {
	updated, err := scanPeriod(r.tx.QueryRow(ctx, `UPDATE accounting_periods
SET name=$3, start_date=$4, end_date=$5, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING `+periodColumns, p.ID, p.Version, p.Name, p.StartDate, p.EndDate))
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return Period{}, shared.ErrVersionConflict
		}
		return Period{}, mapExclusion(err)
	}
	return updated, nil
}

func (r *txRepository) SetClosed(ctx context.Context, p Period, closedBy int64, closedAt time.Time) (Period, error) {
	updated, err := scanPeriod(r.tx.QueryRow(ctx, `UPDATE accounting_periods
SET is_closed=TRUE, closed_at=$3, closed_by=$4, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING `+periodColumns, p.ID, p.Version, closedAt, closedBy))
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return Period{}, shared.ErrVersionConflict
		}
		return Period{}, err
	}
	return updated, nil
}

func (r *txRepository) SetOpen(ctx context.Context, p Period) (Period, error) {
	updated, err := scanPeriod(r.tx.QueryRow(ctx, `UPDATE accounting_periods
SET is_closed=FALSE, closed_at=NULL, closed_by=NULL, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING `+periodColumns, p.ID, p.Version))
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			return Period{}, shared.ErrVersionConflict
		}
		return Period{}, err
	}
	return updated, nil
}

func (r *txRepository) Delete(ctx context.Context, orgID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM accounting_periods WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *txRepository) CountEntries(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE accounting_period_id=$1`, periodID).Scan(&count)
	return count, err
}

func (r *txRepository) CountNonFinalEntries(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE accounting_period_id=$1 AND status NOT IN ('approved','cancelled')`, periodID).Scan(&count)
	return count, err
}

func (r *txRepository) CountEntriesOutsideRange(ctx context.Context, periodID int64, start, end time.Time) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE accounting_period_id=$1 AND (entry_date < $2 OR entry_date > $3)`, periodID, start, end).Scan(&count)
	return count, err
}

func (r *txRepository) CountOpenPeriods(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE org_id=$1 AND is_closed=FALSE`, orgID).Scan(&count)
	return count, err
}

func mapExclusion(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return ErrPeriodOverlap
	}
	return err
}
