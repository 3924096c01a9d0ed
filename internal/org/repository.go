package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Repository encapsulates DB operations for organizations and memberships.
type Repository interface {
	InsertOrganization(ctx context.Context, name string, creatorID int64) (Organization, error)
	GetOrganization(ctx context.Context, id int64) (Organization, error)
	ListForUser(ctx context.Context, userID int64) ([]Organization, error)
	UpsertMembership(ctx context.Context, m Membership) error
	ListMembers(ctx context.Context, orgID int64) ([]Membership, error)
	RoleInOrg(ctx context.Context, userID, orgID int64) (shared.Role, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) InsertOrganization(ctx context.Context, name string, creatorID int64) (Organization, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Organization{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var org Organization
	org.Name = name
	err = tx.QueryRow(ctx, `INSERT INTO organizations (name) VALUES ($1) RETURNING id, created_at, updated_at`, name).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return Organization{}, err
	}
	// The creator always starts as admin of the new tenant.
	_, err = tx.Exec(ctx, `INSERT INTO org_memberships (org_id, user_id, role) VALUES ($1,$2,$3)`,
		org.ID, creatorID, shared.RoleAdmin)
	if err != nil {
		return Organization{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	var org Organization
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM organizations WHERE id=$1`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.ErrNotFound
		}
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Organization, error) {
	rows, err := r.db.Query(ctx, `SELECT o.id, o.name, o.created_at, o.updated_at
FROM organizations o JOIN org_memberships m ON m.org_id = o.id
WHERE m.user_id = $1 ORDER BY o.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *repository) UpsertMembership(ctx context.Context, m Membership) error {
	_, err := r.db.Exec(ctx, `INSERT INTO org_memberships (org_id, user_id, role) VALUES ($1,$2,$3)
ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role`, m.OrgID, m.UserID, m.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, orgID int64) ([]Membership, error) {
	rows, err := r.db.Query(ctx, `SELECT org_id, user_id, role, created_at FROM org_memberships WHERE org_id=$1 ORDER BY user_id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repository) RoleInOrg(ctx context.Context, userID, orgID int64) (shared.Role, error) {
	var role shared.Role
	err := r.db.QueryRow(ctx, `SELECT role FROM org_memberships WHERE user_id=$1 AND org_id=$2`, userID, orgID).
		Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrForbidden
		}
		return "", err
	}
	return role, nil
}
