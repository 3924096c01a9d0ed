package partners

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// ErrDuplicateCode maps the unique (org_id, code) index violation.
var ErrDuplicateCode = shared.E(shared.KindValidation, "partner code already exists in this organization")

// ErrPartnerReferenced rejects deleting a partner with journal lines.
var ErrPartnerReferenced = shared.E(shared.KindInvalidOperation, "partner is referenced by journal entries")

// Repository encapsulates DB operations for business partners.
type Repository interface {
	Insert(ctx context.Context, in CreateInput) (Partner, error)
	Update(ctx context.Context, p Partner) (Partner, error)
	Delete(ctx context.Context, orgID, id int64) error
	Get(ctx context.Context, orgID, id int64) (Partner, error)
	List(ctx context.Context, orgID int64, kind Kind) ([]Partner, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const partnerColumns = `id, org_id, code, name, kind, email, phone, is_active, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, in CreateInput) (Partner, error) {
	var p Partner
	err := r.db.QueryRow(ctx, `INSERT INTO partners (org_id, code, name, kind, email, phone, is_active)
VALUES ($1,$2,$3,$4,$5,$6,TRUE) RETURNING `+partnerColumns,
		in.OrgID, in.Code, in.Name, in.Kind, in.Email, in.Phone).
		Scan(&p.ID, &p.OrgID, &p.Code, &p.Name, &p.Kind, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Partner{}, mapConstraint(err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Partner) (Partner, error) {
	var out Partner
	err := r.db.QueryRow(ctx, `UPDATE partners SET name=$3, email=$4, phone=$5, is_active=$6, updated_at=NOW()
WHERE org_id=$1 AND id=$2 RETURNING `+partnerColumns,
		p.OrgID, p.ID, p.Name, p.Email, p.Phone, p.IsActive).
		Scan(&out.ID, &out.OrgID, &out.Code, &out.Name, &out.Kind, &out.Email, &out.Phone, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, shared.ErrNotFound
		}
		return Partner{}, mapConstraint(err)
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, orgID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM partners WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return mapConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Partner, error) {
	var p Partner
	err := r.db.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE org_id=$1 AND id=$2`, orgID, id).
		Scan(&p.ID, &p.OrgID, &p.Code, &p.Name, &p.Kind, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, shared.ErrNotFound
		}
		return Partner{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, orgID int64, kind Kind) ([]Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE org_id=$1`
	args := []any{orgID}
	if kind != "" {
		query += ` AND kind=$2`
		args = append(args, kind)
	}
	query += ` ORDER BY code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Code, &p.Name, &p.Kind, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// mapConstraint turns postgres constraint violations into domain errors.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateCode
		case "23503":
			return ErrPartnerReferenced
		}
	}
	return err
}
