package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian-books/internal/shared"
)

type memRepo struct {
	records    map[int64]Account
	referenced map[int64]bool
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[int64]Account{}, referenced: map[int64]bool{}}
}

func (m *memRepo) Insert(ctx context.Context, in CreateInput) (Account, error) {
	for _, a := range m.records {
		if a.OrgID == in.OrgID && a.Code == in.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	m.nextID++
	acc := Account{
		ID: m.nextID, OrgID: in.OrgID, Code: in.Code, Name: in.Name,
		Type: in.Type, Category: in.Category, ParentID: in.ParentID, IsActive: true,
	}
	m.records[acc.ID] = acc
	return acc, nil
}

func (m *memRepo) Update(ctx context.Context, acc Account) (Account, error) {
	if _, ok := m.records[acc.ID]; !ok {
		return Account{}, shared.ErrNotFound
	}
	for _, other := range m.records {
		if other.ID != acc.ID && other.OrgID == acc.OrgID && other.Code == acc.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	m.records[acc.ID] = acc
	return acc, nil
}

func (m *memRepo) Delete(ctx context.Context, orgID, id int64) error {
	delete(m.records, id)
	return nil
}

func (m *memRepo) Get(ctx context.Context, orgID, id int64) (Account, error) {
	acc, ok := m.records[id]
	if !ok || acc.OrgID != orgID {
		return Account{}, shared.ErrNotFound
	}
	return acc, nil
}

func (m *memRepo) List(ctx context.Context, orgID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.records {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) HasChildren(ctx context.Context, orgID, id int64) (bool, error) {
	for _, a := range m.records {
		if a.OrgID == orgID && a.ParentID != nil && *a.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return m.referenced[id], nil
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

func TestCreateAccount(t *testing.T) {
	svc, _ := newFixture(t)

	acc, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, Category: "cash", ActorID: 2,
	})
	require.NoError(t, err)
	require.True(t, acc.IsActive)
	require.Equal(t, AccountTypeAsset, acc.Type)
}

func TestCreateRejectsInvalidType(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: "banana", ActorID: 2,
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newFixture(t)

	in := CreateInput{OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, ActorID: 2}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateRejectsForeignParent(t *testing.T) {
	svc, repo := newFixture(t)
	other, err := repo.Insert(context.Background(), CreateInput{OrgID: 2, Code: "1000", Name: "Cash", Type: AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1100", Name: "Petty Cash", Type: AccountTypeAsset, ParentID: &other.ID, ActorID: 2,
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	svc, _ := newFixture(t)
	acc, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, ActorID: 2,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), UpdateInput{
		OrgID: 1, AccountID: acc.ID, ParentID: &acc.ID, ActorID: 2,
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestDeleteBlockedByChildren(t *testing.T) {
	svc, _ := newFixture(t)
	parent, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, ActorID: 2,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1100", Name: "Petty Cash", Type: AccountTypeAsset, ParentID: &parent.ID, ActorID: 2,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 2, 1, parent.ID)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
}

func TestDeleteBlockedByJournalReferences(t *testing.T) {
	svc, repo := newFixture(t)
	acc, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, ActorID: 2,
	})
	require.NoError(t, err)
	repo.referenced[acc.ID] = true

	err = svc.Delete(context.Background(), 2, 1, acc.ID)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
}

func TestDeleteUnreferencedAccount(t *testing.T) {
	svc, repo := newFixture(t)
	acc, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Code: "1000", Name: "Cash", Type: AccountTypeAsset, ActorID: 2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 2, 1, acc.ID))
	_, ok := repo.records[acc.ID]
	require.False(t, ok)
}

func TestDebitNormalSides(t *testing.T) {
	require.True(t, AccountTypeAsset.DebitNormal())
	require.True(t, AccountTypeExpense.DebitNormal())
	require.False(t, AccountTypeLiability.DebitNormal())
	require.False(t, AccountTypeEquity.DebitNormal())
	require.False(t, AccountTypeRevenue.DebitNormal())
}
