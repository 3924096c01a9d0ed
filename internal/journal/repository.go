package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/periods"
	"github.com/meridian-books/meridian-books/internal/shared"
)

// Repository encapsulates DB operations for journal entries. Mutations run
// through WithTx so the header and its lines commit or roll back together.
type Repository interface {
	List(ctx context.Context, orgID int64, filter ListFilter) ([]Entry, int, error)
	Get(ctx context.Context, orgID, id int64) (Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetPeriodForUpdate(ctx context.Context, orgID, periodID int64) (periods.Period, error)
	CountAccounts(ctx context.Context, orgID int64, ids []int64) (int, error)
	CountPartners(ctx context.Context, orgID int64, ids []int64) (int, error)
	InsertEntry(ctx context.Context, in CreateInput) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error)
	GetEntryForUpdate(ctx context.Context, orgID, id int64) (Entry, error)
	GetLines(ctx context.Context, entryID int64) ([]Line, error)
	DeleteLines(ctx context.Context, entryID int64) error
	UpdateHeader(ctx context.Context, e Entry) (Entry, error)
	MarkApproved(ctx context.Context, e Entry, approvedBy int64, approvedAt time.Time) (Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, org_id, accounting_period_id, entry_number, entry_date, description, status, created_by, approved_by, approved_at, version, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.OrgID, &e.PeriodID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.Status, &e.CreatedBy, &e.ApprovedBy, &e.ApprovedAt, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Entry, int, error) {
	page := shared.NewPagination(filter.Page, filter.PerPage, 0)
	where := `WHERE org_id=$1`
	args := []any{orgID}
	if filter.PeriodID != 0 {
		args = append(args, filter.PeriodID)
		where += fmt.Sprintf(` AND accounting_period_id=$%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM journal_entries %s ORDER BY entry_date DESC, entry_number DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		return Entry{}, err
	}
	lines, err := fetchLines(ctx, r.db, id)
	if err != nil {
		return Entry{}, err
	}
	entry.Lines = lines
	return entry, nil
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

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, orgID, periodID int64) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, org_id, name, start_date, end_date, is_closed, closed_at, closed_by, version, created_at, updated_at
FROM accounting_periods WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, periodID).
		Scan(&p.ID, &p.OrgID, &p.Name, &p.StartDate, &p.EndDate, &p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, periods.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) CountAccounts(ctx context.Context, orgID int64, ids []int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(DISTINCT id) FROM accounts WHERE org_id=$1 AND id = ANY($2)`, orgID, ids).Scan(&count)
	return count, err
}

func (r *txRepository) CountPartners(ctx context.Context, orgID int64, ids []int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(DISTINCT id) FROM partners WHERE org_id=$1 AND id = ANY($2)`, orgID, ids).Scan(&count)
	return count, err
}

func (r *txRepository) InsertEntry(ctx context.Context, in CreateInput) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(org_id, accounting_period_id, entry_number, entry_date, description, status, created_by, version)
VALUES ($1,$2,$3,$4,$5,'draft',$6,1) RETURNING `+entryColumns,
		in.OrgID, in.PeriodID, in.EntryNumber, in.EntryDate, in.Description, in.ActorID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, ErrDuplicateNumber
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		var inserted Line
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_lines
(journal_entry_id, line_number, account_id, debit_amount, credit_amount, description, partner_id, tax_rate)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, journal_entry_id, line_number, account_id, debit_amount, credit_amount, description, partner_id, tax_rate`,
			entryID, line.LineNumber, line.AccountID, line.Debit, line.Credit, line.Description, line.PartnerID, line.TaxRate).
			Scan(&inserted.ID, &inserted.EntryID, &inserted.LineNumber, &inserted.AccountID, &inserted.Debit, &inserted.Credit, &inserted.Description, &inserted.PartnerID, &inserted.TaxRate)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, orgID, id int64) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, id))
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]Line, error) {
	return fetchLines(ctx, r.tx, entryID)
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE journal_entry_id=$1`, entryID)
	return err
}

func (r *txRepository) UpdateHeader(ctx context.Context, e Entry) (Entry, error) {
	updated, err := scanEntry(r.tx.QueryRow(ctx, `UPDATE journal_entries
SET accounting_period_id=$3, entry_number=$4, entry_date=$5, description=$6, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING `+entryColumns,
		e.ID, e.Version, e.PeriodID, e.EntryNumber, e.EntryDate, e.Description))
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return Entry{}, shared.ErrVersionConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, ErrDuplicateNumber
		}
		return Entry{}, err
	}
	return updated, nil
}

func (r *txRepository) MarkApproved(ctx context.Context, e Entry, approvedBy int64, approvedAt time.Time) (Entry, error) {
	updated, err := scanEntry(r.tx.QueryRow(ctx, `UPDATE journal_entries
SET status='approved', approved_by=$3, approved_at=$4, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING `+entryColumns, e.ID, e.Version, approvedBy, approvedAt))
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return Entry{}, shared.ErrVersionConflict
		}
		return Entry{}, err
	}
	return updated, nil
}

// DeleteEntry removes lines before the header to satisfy the FK.
func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	if err := r.DeleteLines(ctx, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchLines(ctx context.Context, q queryer, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, journal_entry_id, line_number, account_id, debit_amount, credit_amount, description, partner_id, tax_rate
FROM journal_entry_lines WHERE journal_entry_id=$1 ORDER BY line_number ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.LineNumber, &line.AccountID, &line.Debit, &line.Credit, &line.Description, &line.PartnerID, &line.TaxRate); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
