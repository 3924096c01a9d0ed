package org

import (
	"context"
	"strings"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Service orchestrates organization and membership operations. It is also
// the role authority every other module consults through Guard.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateOrganization creates a tenant with the actor as admin.
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrgInput) (Organization, error) {
	if err := in.Validate(); err != nil {
		return Organization{}, err
	}
	return s.repo.InsertOrganization(ctx, strings.TrimSpace(in.Name), in.ActorID)
}

// ListOrganizations returns the organizations the user belongs to.
func (s *Service) ListOrganizations(ctx context.Context, userID int64) ([]Organization, error) {
	if userID == 0 {
		return nil, shared.ErrUnauthorized
	}
	return s.repo.ListForUser(ctx, userID)
}

// AddMember grants or updates a membership; only org admins may manage members.
func (s *Service) AddMember(ctx context.Context, in AddMemberInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := s.Guard(ctx, in.ActorID, in.OrgID, shared.OpOrgManage); err != nil {
		return err
	}
	return s.repo.UpsertMembership(ctx, Membership{OrgID: in.OrgID, UserID: in.UserID, Role: in.Role})
}

// ListMembers returns the members of an organization.
func (s *Service) ListMembers(ctx context.Context, actorID, orgID int64) ([]Membership, error) {
	if _, err := s.repo.RoleInOrg(ctx, actorID, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}

// RoleInOrg resolves the actor's role within the organization.
func (s *Service) RoleInOrg(ctx context.Context, userID, orgID int64) (shared.Role, error) {
	if userID == 0 {
		return "", shared.ErrUnauthorized
	}
	return s.repo.RoleInOrg(ctx, userID, orgID)
}

// Guard authorizes an operation: membership lookup then policy check.
func (s *Service) Guard(ctx context.Context, userID, orgID int64, op shared.Operation) error {
	role, err := s.RoleInOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	return shared.Authorize(role, op)
}
