package partners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian-books/internal/shared"
)

type memRepo struct {
	records    map[int64]Partner
	referenced map[int64]bool
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[int64]Partner{}, referenced: map[int64]bool{}}
}

func (m *memRepo) Insert(ctx context.Context, in CreateInput) (Partner, error) {
	for _, p := range m.records {
		if p.OrgID == in.OrgID && p.Code == in.Code {
			return Partner{}, ErrDuplicateCode
		}
	}
	m.nextID++
	p := Partner{
		ID: m.nextID, OrgID: in.OrgID, Code: in.Code, Name: in.Name,
		Kind: in.Kind, Email: in.Email, Phone: in.Phone, IsActive: true,
	}
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) Update(ctx context.Context, p Partner) (Partner, error) {
	if _, ok := m.records[p.ID]; !ok {
		return Partner{}, shared.ErrNotFound
	}
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) Delete(ctx context.Context, orgID, id int64) error {
	if m.referenced[id] {
		return ErrPartnerReferenced
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) Get(ctx context.Context, orgID, id int64) (Partner, error) {
	p, ok := m.records[id]
	if !ok || p.OrgID != orgID {
		return Partner{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memRepo) List(ctx context.Context, orgID int64, kind Kind) ([]Partner, error) {
	var out []Partner
	for _, p := range m.records {
		if p.OrgID != orgID {
			continue
		}
		if kind != "" && p.Kind != kind {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type allowGuard struct{}

func (allowGuard) Guard(ctx context.Context, userID, orgID int64, op shared.Operation) error {
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

func newFixture(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(repo, allowGuard{}, nopAudit{}), repo
}

func TestCreatePartner(t *testing.T) {
	svc, _ := newFixture(t)

	p, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: " C-001 ", Name: " Globex ", Kind: KindCustomer, ActorID: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "C-001", p.Code)
	require.Equal(t, "Globex", p.Name)
	require.True(t, p.IsActive)
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "C-001", Name: "Globex", Kind: "reseller", ActorID: 2,
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newFixture(t)

	in := CreateInput{OrgID: 1, Code: "C-001", Name: "Globex", Kind: KindCustomer, ActorID: 2}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestUpdatePartner(t *testing.T) {
	svc, _ := newFixture(t)
	p, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "V-001", Name: "Initech", Kind: KindVendor, ActorID: 2,
	})
	require.NoError(t, err)

	name := "Initech Supplies"
	inactive := false
	updated, err := svc.Update(context.Background(), UpdateInput{
		OrgID: 1, PartnerID: p.ID, Name: &name, IsActive: &inactive, ActorID: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "Initech Supplies", updated.Name)
	require.False(t, updated.IsActive)
	require.Equal(t, KindVendor, updated.Kind)
}

func TestDeleteBlockedByJournalReferences(t *testing.T) {
	svc, repo := newFixture(t)
	p, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "C-001", Name: "Globex", Kind: KindCustomer, ActorID: 2,
	})
	require.NoError(t, err)
	repo.referenced[p.ID] = true

	err = svc.Delete(context.Background(), 2, 1, p.ID)
	require.ErrorIs(t, err, ErrPartnerReferenced)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
	_, ok := repo.records[p.ID]
	require.True(t, ok)
}

func TestDeleteUnreferencedPartner(t *testing.T) {
	svc, repo := newFixture(t)
	p, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "C-001", Name: "Globex", Kind: KindCustomer, ActorID: 2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 2, 1, p.ID))
	_, ok := repo.records[p.ID]
	require.False(t, ok)
}

func TestListFiltersByKind(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Create(context.Background(), CreateInput{OrgID: 1, Code: "C-001", Name: "Globex", Kind: KindCustomer, ActorID: 2})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{OrgID: 1, Code: "V-001", Name: "Initech", Kind: KindVendor, ActorID: 2})
	require.NoError(t, err)

	vendors, err := svc.List(context.Background(), 2, 1, KindVendor)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	require.Equal(t, "V-001", vendors[0].Code)

	all, err := svc.List(context.Background(), 2, 1, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(context.Background(), 2, 1, "reseller")
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}
