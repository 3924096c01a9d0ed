package org

import (
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Organization is the tenant boundary for all bookkeeping data.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership links a user to an organization with a role.
type Membership struct {
	OrgID     int64       `json:"org_id"`
	UserID    int64       `json:"user_id"`
	Role      shared.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateOrgInput carries parameters for creating an organization.
type CreateOrgInput struct {
	Name    string
	ActorID int64
}

// Validate checks required fields.
func (in CreateOrgInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.E(shared.KindValidation, "organization name required")
	}
	if in.ActorID == 0 {
		return shared.ErrUnauthorized
	}
	return nil
}

// AddMemberInput carries parameters for adding a member.
type AddMemberInput struct {
	OrgID   int64
	UserID  int64
	Role    shared.Role
	ActorID int64
}

// Validate checks required fields and role value.
func (in AddMemberInput) Validate() error {
	if in.OrgID == 0 || in.UserID == 0 {
		return shared.E(shared.KindValidation, "organization and user required")
	}
	if !in.Role.Valid() {
		return shared.E(shared.KindValidation, "role must be admin, accountant, or viewer")
	}
	return nil
}
