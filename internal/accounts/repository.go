package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// ErrDuplicateCode maps the unique (org_id, code) index violation. The
// constraint, not the application pre-check, is the authoritative signal.
var ErrDuplicateCode = shared.E(shared.KindValidation, "account code already exists in this organization")

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Insert(ctx context.Context, in CreateInput) (Account, error)
	Update(ctx context.Context, acc Account) (Account, error)
	Delete(ctx context.Context, orgID, id int64) error
	Get(ctx context.Context, orgID, id int64) (Account, error)
	List(ctx context.Context, orgID int64) ([]Account, error)
	HasChildren(ctx context.Context, orgID, id int64) (bool, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, org_id, code, name, type, category, parent_id, is_active, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (org_id, code, name, type, category, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,TRUE) RETURNING `+accountColumns,
		in.OrgID, in.Code, in.Name, in.Type, in.Category, in.ParentID).
		Scan(&acc.ID, &acc.OrgID, &acc.Code, &acc.Name, &acc.Type, &acc.Category, &acc.ParentID, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return Account{}, mapConstraint(err)
	}
	return acc, nil
}

func (r *repository) Update(ctx context.Context, acc Account) (Account, error) {
	var out Account
	err := r.db.QueryRow(ctx, `UPDATE accounts SET code=$3, name=$4, category=$5, parent_id=$6, is_active=$7, updated_at=NOW()
WHERE org_id=$1 AND id=$2 RETURNING `+accountColumns,
		acc.OrgID, acc.ID, acc.Code, acc.Name, acc.Category, acc.ParentID, acc.IsActive).
		Scan(&out.ID, &out.OrgID, &out.Code, &out.Name, &out.Type, &out.Category, &out.ParentID, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, mapConstraint(err)
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, orgID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return mapConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 AND id=$2`, orgID, id).
		Scan(&acc.ID, &acc.OrgID, &acc.Code, &acc.Name, &acc.Type, &acc.Category, &acc.ParentID, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.OrgID, &acc.Code, &acc.Name, &acc.Type, &acc.Category, &acc.ParentID, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *repository) HasChildren(ctx context.Context, orgID, id int64) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE org_id=$1 AND parent_id=$2`, orgID, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entry_lines WHERE account_id=$1`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateCode
		case "23503":
			return shared.E(shared.KindInvalidOperation, "account is referenced and cannot be removed")
		}
	}
	return err
}
