package periods

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Guard authorizes an operation for a user within an organization.
type Guard interface {
	Guard(ctx context.Context, userID, orgID int64, op shared.Operation) error
}

// AuditPort records mutations for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives the open/closed period state machine.
type Service struct {
	repo  Repository
	guard Guard
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, guard Guard, audit AuditPort) *Service {
	return &Service{repo: repo, guard: guard, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns the organization's periods ordered by start date.
func (s *Service) List(ctx context.Context, actorID, orgID int64) ([]Period, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodView); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, orgID)
}

// Get returns a single period.
func (s *Service) Get(ctx context.Context, actorID, orgID, id int64) (Period, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodView); err != nil {
		return Period{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// Create inserts a new open period after overlap validation.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpPeriodWrite); err != nil {
		return Period{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		conflict, err := tx.RangeConflict(ctx, in.OrgID, in.StartDate, in.EndDate, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrPeriodOverlap
		}
		period, err = tx.Insert(ctx, in)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period, in.ActorID, "period.create", nil)
	return period, nil
}

// UpdateRange changes an open period's name and bounds. Rejected wholesale
// when any existing entry would fall outside the new range.
func (s *Service) UpdateRange(ctx context.Context, in UpdateRangeInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpPeriodWrite); err != nil {
		return Period{}, err
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, in.OrgID, in.PeriodID)
		if err != nil {
			return err
		}
		if current.IsClosed {
			return ErrPeriodClosed
		}
		if in.Version > 0 && in.Version != current.Version {
			return shared.ErrVersionConflict
		}
		conflict, err := tx.RangeConflict(ctx, in.OrgID, in.StartDate, in.EndDate, current.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrPeriodOverlap
		}
		outside, err := tx.CountEntriesOutsideRange(ctx, current.ID, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if outside > 0 {
			return shared.EDetail(shared.KindValidation, ErrEntriesOutOfRange.Message, map[string]any{
				"entries_out_of_range": outside,
			})
		}
		current.StartDate = in.StartDate
		current.EndDate = in.EndDate
		if name := strings.TrimSpace(in.Name); name != "" {
			current.Name = name
		}
		period, err = tx.UpdateRange(ctx, current)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period, in.ActorID, "period.update", nil)
	return period, nil
}

// Close transitions open -> closed. Blocked while any non-final entry is
// dated into the period.
func (s *Service) Close(ctx context.Context, actorID, orgID, id int64) (Period, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodClose); err != nil {
		return Period{}, err
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if current.IsClosed {
			return ErrPeriodClosed
		}
		open, err := tx.CountNonFinalEntries(ctx, current.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return shared.EDetail(shared.KindInvalidOperation, ErrOpenEntries.Message, map[string]any{
				"draft_entries": open,
			})
		}
		period, err = tx.SetClosed(ctx, current, actorID, s.now())
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period, actorID, "period.close", nil)
	return period, nil
}

// Reopen transitions closed -> open. Admin only, and deliberately without an
// entry-status re-check: reopening by itself unsettles nothing.
func (s *Service) Reopen(ctx context.Context, actorID, orgID, id int64) (Period, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodReopen); err != nil {
		return Period{}, err
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if !current.IsClosed {
			return shared.E(shared.KindInvalidOperation, "period is already open")
		}
		period, err = tx.SetOpen(ctx, current)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period, actorID, "period.reopen", nil)
	return period, nil
}

// Activate is the idempotent compatibility alias: reopens a closed period,
// no-ops when the period is already open.
func (s *Service) Activate(ctx context.Context, actorID, orgID, id int64) (Period, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodReopen); err != nil {
		return Period{}, err
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if !current.IsClosed {
			period = current
			return nil
		}
		period, err = tx.SetOpen(ctx, current)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period, actorID, "period.activate", nil)
	return period, nil
}

// Delete removes an empty period, never the organization's sole open one.
func (s *Service) Delete(ctx context.Context, actorID, orgID, id int64) error {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpPeriodDelete); err != nil {
		return err
	}
	var deleted Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		entries, err := tx.CountEntries(ctx, current.ID)
		if err != nil {
			return err
		}
		if entries > 0 {
			return ErrPeriodHasEntries
		}
		if !current.IsClosed {
			openCount, err := tx.CountOpenPeriods(ctx, orgID)
			if err != nil {
				return err
			}
			if openCount <= 1 {
				return ErrLastOpenPeriod
			}
		}
		deleted = current
		return tx.Delete(ctx, orgID, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, deleted, actorID, "period.delete", nil)
	return nil
}

func (s *Service) record(ctx context.Context, p Period, actorID int64, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["name"] = p.Name
	meta["start_date"] = p.StartDate.Format("2006-01-02")
	meta["end_date"] = p.EndDate.Format("2006-01-02")
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    p.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "accounting_period",
		EntityID: fmt.Sprintf("%d", p.ID),
		Meta:     meta,
		At:       s.now(),
	})
}
