package org

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian-books/internal/shared"
)

type memRepo struct {
	orgs    map[int64]Organization
	members map[int64]map[int64]shared.Role
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{orgs: map[int64]Organization{}, members: map[int64]map[int64]shared.Role{}}
}

func (m *memRepo) InsertOrganization(ctx context.Context, name string, creatorID int64) (Organization, error) {
	m.nextID++
	o := Organization{ID: m.nextID, Name: name}
	m.orgs[o.ID] = o
	m.members[o.ID] = map[int64]shared.Role{creatorID: shared.RoleAdmin}
	return o, nil
}

func (m *memRepo) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	if o, ok := m.orgs[id]; ok {
		return o, nil
	}
	return Organization{}, shared.ErrNotFound
}

func (m *memRepo) ListForUser(ctx context.Context, userID int64) ([]Organization, error) {
	var out []Organization
	for id, roles := range m.members {
		if _, ok := roles[userID]; ok {
			out = append(out, m.orgs[id])
		}
	}
	return out, nil
}

func (m *memRepo) UpsertMembership(ctx context.Context, mem Membership) error {
	if _, ok := m.members[mem.OrgID]; !ok {
		m.members[mem.OrgID] = map[int64]shared.Role{}
	}
	m.members[mem.OrgID][mem.UserID] = mem.Role
	return nil
}

func (m *memRepo) ListMembers(ctx context.Context, orgID int64) ([]Membership, error) {
	var out []Membership
	for uid, role := range m.members[orgID] {
		out = append(out, Membership{OrgID: orgID, UserID: uid, Role: role})
	}
	return out, nil
}

func (m *memRepo) RoleInOrg(ctx context.Context, userID, orgID int64) (shared.Role, error) {
	role, ok := m.members[orgID][userID]
	if !ok {
		return "", shared.ErrForbidden
	}
	return role, nil
}

func TestCreateOrganizationGrantsAdmin(t *testing.T) {
	svc := NewService(newMemRepo())

	o, err := svc.CreateOrganization(context.Background(), CreateOrgInput{Name: "  Acme Books  ", ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, "Acme Books", o.Name)

	role, err := svc.RoleInOrg(context.Background(), 1, o.ID)
	require.NoError(t, err)
	require.Equal(t, shared.RoleAdmin, role)
}

func TestGuardDeniesNonMember(t *testing.T) {
	svc := NewService(newMemRepo())
	o, err := svc.CreateOrganization(context.Background(), CreateOrgInput{Name: "Acme", ActorID: 1})
	require.NoError(t, err)

	err = svc.Guard(context.Background(), 99, o.ID, shared.OpAccountView)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGuardDeniesAnonymous(t *testing.T) {
	svc := NewService(newMemRepo())

	err := svc.Guard(context.Background(), 0, 1, shared.OpAccountView)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestGuardEnforcesPolicy(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	o, err := svc.CreateOrganization(context.Background(), CreateOrgInput{Name: "Acme", ActorID: 1})
	require.NoError(t, err)
	require.NoError(t, repo.UpsertMembership(context.Background(), Membership{OrgID: o.ID, UserID: 2, Role: shared.RoleViewer}))
	require.NoError(t, repo.UpsertMembership(context.Background(), Membership{OrgID: o.ID, UserID: 3, Role: shared.RoleAccountant}))

	require.NoError(t, svc.Guard(context.Background(), 2, o.ID, shared.OpReportView))
	err = svc.Guard(context.Background(), 2, o.ID, shared.OpJournalWrite)
	require.Equal(t, shared.KindInsufficientRole, shared.KindOf(err))

	require.NoError(t, svc.Guard(context.Background(), 3, o.ID, shared.OpJournalWrite))
	err = svc.Guard(context.Background(), 3, o.ID, shared.OpPeriodReopen)
	require.Equal(t, shared.KindInsufficientRole, shared.KindOf(err))

	require.NoError(t, svc.Guard(context.Background(), 1, o.ID, shared.OpPeriodReopen))
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	o, err := svc.CreateOrganization(context.Background(), CreateOrgInput{Name: "Acme", ActorID: 1})
	require.NoError(t, err)
	require.NoError(t, repo.UpsertMembership(context.Background(), Membership{OrgID: o.ID, UserID: 3, Role: shared.RoleAccountant}))

	err = svc.AddMember(context.Background(), AddMemberInput{OrgID: o.ID, UserID: 4, Role: shared.RoleViewer, ActorID: 3})
	require.Equal(t, shared.KindInsufficientRole, shared.KindOf(err))

	require.NoError(t, svc.AddMember(context.Background(), AddMemberInput{OrgID: o.ID, UserID: 4, Role: shared.RoleViewer, ActorID: 1}))
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo())

	err := svc.AddMember(context.Background(), AddMemberInput{OrgID: 1, UserID: 2, Role: "owner", ActorID: 1})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}
