package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian-books/internal/shared"
)

type memRepo struct {
	records map[int64]Period
	// entry counts per period id
	entries    map[int64]int
	nonFinal   map[int64]int
	outOfRange map[int64]int
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		records:    map[int64]Period{},
		entries:    map[int64]int{},
		nonFinal:   map[int64]int{},
		outOfRange: map[int64]int{},
	}
}

func (m *memRepo) List(ctx context.Context, orgID int64) ([]Period, error) {
	var out []Period
	for _, p := range m.records {
		if p.OrgID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) Get(ctx context.Context, orgID, id int64) (Period, error) {
	p, ok := m.records[id]
	if !ok || p.OrgID != orgID {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) GetForUpdate(ctx context.Context, orgID, id int64) (Period, error) {
	return m.Get(ctx, orgID, id)
}

func (m *memRepo) RangeConflict(ctx context.Context, orgID int64, start, end time.Time, excludeID int64) (bool, error) {
	for _, p := range m.records {
		if p.OrgID != orgID || p.ID == excludeID {
			continue
		}
		if p.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Insert(ctx context.Context, in CreateInput) (Period, error) {
	m.nextID++
	p := Period{
		ID:        m.nextID,
		OrgID:     in.OrgID,
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Version:   1,
	}
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) UpdateRange(ctx context.Context, p Period) (Period, error) {
	stored, ok := m.records[p.ID]
	if !ok || stored.Version != p.Version {
		return Period{}, shared.ErrVersionConflict
	}
	p.Version++
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) SetClosed(ctx context.Context, p Period, closedBy int64, closedAt time.Time) (Period, error) {
	stored, ok := m.records[p.ID]
	if !ok || stored.Version != p.Version {
		return Period{}, shared.ErrVersionConflict
	}
	p.IsClosed = true
	p.ClosedBy = &closedBy
	p.ClosedAt = &closedAt
	p.Version++
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) SetOpen(ctx context.Context, p Period) (Period, error) {
	stored, ok := m.records[p.ID]
	if !ok || stored.Version != p.Version {
		return Period{}, shared.ErrVersionConflict
	}
	p.IsClosed = false
	p.ClosedBy = nil
	p.ClosedAt = nil
	p.Version++
	m.records[p.ID] = p
	return p, nil
}

func (m *memRepo) Delete(ctx context.Context, orgID, id int64) error {
	delete(m.records, id)
	return nil
}

func (m *memRepo) CountEntries(ctx context.Context, periodID int64) (int, error) {
	return m.entries[periodID], nil
}

func (m *memRepo) CountNonFinalEntries(ctx context.Context, periodID int64) (int, error) {
	return m.nonFinal[periodID], nil
}

func (m *memRepo) CountEntriesOutsideRange(ctx context.Context, periodID int64, start, end time.Time) (int, error) {
	return m.outOfRange[periodID], nil
}

func (m *memRepo) CountOpenPeriods(ctx context.Context, orgID int64) (int, error) {
	n := 0
	for _, p := range m.records {
		if p.OrgID == orgID && !p.IsClosed {
			n++
		}
	}
	return n, nil
}

type allowGuard struct{}

func (allowGuard) Guard(ctx context.Context, userID, orgID int64, op shared.Operation) error {
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(repo, allowGuard{}, nopAudit{})
	svc.WithNow(func() time.Time { return day(2026, 2, 1) })
	return svc, repo
}

func create(t *testing.T, svc *Service, name string, start, end time.Time) Period {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Name: name, StartDate: start, EndDate: end, ActorID: 3,
	})
	require.NoError(t, err)
	return p
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, _ := newFixture(t)
	create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))

	_, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Name: "Mid-January", StartDate: day(2026, 1, 15), EndDate: day(2026, 2, 15), ActorID: 3,
	})
	require.ErrorIs(t, err, ErrPeriodOverlap)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCreateAllowsAdjacentRanges(t *testing.T) {
	svc, _ := newFixture(t)
	create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	create(t, svc, "February", day(2026, 2, 1), day(2026, 2, 28))
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Create(context.Background(), CreateInput{
		OrgID: 1, Name: "Backwards", StartDate: day(2026, 2, 1), EndDate: day(2026, 1, 1), ActorID: 3,
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestUpdateRangeBlockedWhenEntriesFallOutside(t *testing.T) {
	svc, repo := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	repo.outOfRange[p.ID] = 2

	_, err := svc.UpdateRange(context.Background(), UpdateRangeInput{
		OrgID: 1, PeriodID: p.ID, Name: "January", StartDate: day(2026, 1, 10), EndDate: day(2026, 1, 31),
		Version: p.Version, ActorID: 3,
	})
	require.Error(t, err)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
	require.EqualValues(t, 2, shared.DetailOf(err)["entries_out_of_range"])
}

func TestUpdateRangeVersionConflict(t *testing.T) {
	svc, _ := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))

	_, err := svc.UpdateRange(context.Background(), UpdateRangeInput{
		OrgID: 1, PeriodID: p.ID, Name: "January", StartDate: day(2026, 1, 1), EndDate: day(2026, 1, 31),
		Version: p.Version + 1, ActorID: 3,
	})
	require.ErrorIs(t, err, shared.ErrVersionConflict)
}

func TestCloseBlockedByDraftEntries(t *testing.T) {
	svc, repo := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	repo.nonFinal[p.ID] = 3

	_, err := svc.Close(context.Background(), 3, 1, p.ID)
	require.Error(t, err)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
	require.EqualValues(t, 3, shared.DetailOf(err)["draft_entries"])
}

func TestCloseStampsPeriod(t *testing.T) {
	svc, _ := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))

	closed, err := svc.Close(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)
	require.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosedBy)
	require.EqualValues(t, 3, *closed.ClosedBy)
	require.NotNil(t, closed.ClosedAt)
	require.Equal(t, day(2026, 2, 1), *closed.ClosedAt)

	_, err = svc.Close(context.Background(), 3, 1, p.ID)
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestReopenClearsCloseStamp(t *testing.T) {
	svc, _ := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	_, err := svc.Close(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)

	reopened, err := svc.Reopen(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)
	require.False(t, reopened.IsClosed)
	require.Nil(t, reopened.ClosedBy)
	require.Nil(t, reopened.ClosedAt)

	_, err = svc.Reopen(context.Background(), 3, 1, p.ID)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
}

func TestActivateIsIdempotent(t *testing.T) {
	svc, _ := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))

	same, err := svc.Activate(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Version, same.Version)

	_, err = svc.Close(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)
	activated, err := svc.Activate(context.Background(), 3, 1, p.ID)
	require.NoError(t, err)
	require.False(t, activated.IsClosed)
}

func TestDeleteBlockedByEntries(t *testing.T) {
	svc, repo := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	create(t, svc, "February", day(2026, 2, 1), day(2026, 2, 28))
	repo.entries[p.ID] = 1

	err := svc.Delete(context.Background(), 3, 1, p.ID)
	require.ErrorIs(t, err, ErrPeriodHasEntries)
	require.Equal(t, shared.KindInvalidOperation, shared.KindOf(err))
}

func TestDeleteRefusesLastOpenPeriod(t *testing.T) {
	svc, _ := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))

	err := svc.Delete(context.Background(), 3, 1, p.ID)
	require.ErrorIs(t, err, ErrLastOpenPeriod)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestDeleteEmptyPeriod(t *testing.T) {
	svc, repo := newFixture(t)
	p := create(t, svc, "January", day(2026, 1, 1), day(2026, 1, 31))
	create(t, svc, "February", day(2026, 2, 1), day(2026, 2, 28))

	require.NoError(t, svc.Delete(context.Background(), 3, 1, p.ID))
	_, ok := repo.records[p.ID]
	require.False(t, ok)
}

func TestContainsAndOverlapsAreInclusive(t *testing.T) {
	p := Period{StartDate: day(2026, 1, 1), EndDate: day(2026, 1, 31)}
	require.True(t, p.Contains(day(2026, 1, 1)))
	require.True(t, p.Contains(day(2026, 1, 31)))
	require.False(t, p.Contains(day(2026, 2, 1)))
	require.True(t, p.Overlaps(day(2026, 1, 31), day(2026, 2, 28)))
	require.False(t, p.Overlaps(day(2026, 2, 1), day(2026, 2, 28)))
}
