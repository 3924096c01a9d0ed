package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/periods"
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

// Invalidator notifies the report layer that ledger data changed. The call
// is fire-and-forget; failures never abort the mutation.
type Invalidator interface {
	InvalidateReports(ctx context.Context, orgID int64)
}

// Service applies posting and lifecycle rules for journal entries.
type Service struct {
	repo       Repository
	guard      Guard
	audit      AuditPort
	invalidate Invalidator
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, guard Guard, audit AuditPort, invalidate Invalidator) *Service {
	return &Service{repo: repo, guard: guard, audit: audit, invalidate: invalidate, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns org-scoped entries with pagination metadata.
func (s *Service) List(ctx context.Context, actorID, orgID int64, filter ListFilter) ([]Entry, shared.Pagination, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpJournalView); err != nil {
		return nil, shared.Pagination{}, err
	}
	entries, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get returns one entry with its lines ordered by line number.
func (s *Service) Get(ctx context.Context, actorID, orgID, id int64) (Entry, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpJournalView); err != nil {
		return Entry{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// Create atomically persists a draft entry and its lines, or neither.
func (s *Service) Create(ctx context.Context, in CreateInput) (Entry, error) {
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpJournalWrite); err != nil {
		return Entry{}, err
	}
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	in.EntryNumber = strings.TrimSpace(in.EntryNumber)
	in.Description = strings.TrimSpace(in.Description)
	lines := normalizeLines(in.Lines)

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, in.OrgID, in.PeriodID)
		if err != nil {
			return err
		}
		if err := checkPostable(period, in.EntryDate); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, in.OrgID, lines); err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, in)
		if err != nil {
			return err
		}
		insertedLines, err := tx.InsertLines(ctx, inserted.ID, lines)
		if err != nil {
			return err
		}
		inserted.Lines = insertedLines
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.afterMutation(ctx, entry, in.ActorID, "journal.create", nil)
	return entry, nil
}

// Update mutates a draft entry's header and, when lines are supplied,
// replaces them wholesale. Period and date containment are re-validated
// whenever the date, the period, or the lines change.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Entry, error) {
	if in.OrgID == 0 || in.EntryID == 0 {
		return Entry{}, shared.E(shared.KindValidation, "organization and entry required")
	}
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpJournalWrite); err != nil {
		return Entry{}, err
	}
	if in.Lines != nil {
		if err := validateLines(in.Lines); err != nil {
			return Entry{}, err
		}
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, in.OrgID, in.EntryID)
		if err != nil {
			return err
		}
		if current.Status == StatusApproved {
			return ErrApprovedImmutable
		}
		if current.Status == StatusCancelled {
			return shared.E(shared.KindInvalidOperation, "cancelled entries cannot be edited")
		}
		if in.Version > 0 && in.Version != current.Version {
			return shared.ErrVersionConflict
		}
		if in.PeriodID != nil {
			current.PeriodID = *in.PeriodID
		}
		if in.EntryDate != nil {
			current.EntryDate = *in.EntryDate
		}
		if in.EntryNumber != nil {
			number := strings.TrimSpace(*in.EntryNumber)
			if number == "" {
				return shared.E(shared.KindValidation, "entry_number required")
			}
			current.EntryNumber = number
		}
		if in.Description != nil {
			desc := strings.TrimSpace(*in.Description)
			if desc == "" {
				return shared.E(shared.KindValidation, "description required")
			}
			current.Description = desc
		}
		if in.PeriodID != nil || in.EntryDate != nil || in.Lines != nil {
			period, err := tx.GetPeriodForUpdate(ctx, in.OrgID, current.PeriodID)
			if err != nil {
				return err
			}
			if err := checkPostable(period, current.EntryDate); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateHeader(ctx, current)
		if err != nil {
			return err
		}
		if in.Lines != nil {
			lines := normalizeLines(in.Lines)
			if err := checkReferences(ctx, tx, in.OrgID, lines); err != nil {
				return err
			}
			if err := tx.DeleteLines(ctx, updated.ID); err != nil {
				return err
			}
			updated.Lines, err = tx.InsertLines(ctx, updated.ID, lines)
			if err != nil {
				return err
			}
		} else {
			updated.Lines, err = tx.GetLines(ctx, updated.ID)
			if err != nil {
				return err
			}
		}
		entry = updated
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.afterMutation(ctx, entry, in.ActorID, "journal.update", nil)
	return entry, nil
}

// Approve transitions a draft entry to approved. The transition is terminal:
// approved entries are immutable to update and delete.
func (s *Service) Approve(ctx context.Context, actorID, orgID, id int64) (Entry, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpJournalApprove); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrNotDraft
		}
		approved, err := tx.MarkApproved(ctx, current, actorID, s.now())
		if err != nil {
			return err
		}
		approved.Lines, err = tx.GetLines(ctx, approved.ID)
		if err != nil {
			return err
		}
		entry = approved
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.afterMutation(ctx, entry, actorID, "journal.approve", nil)
	return entry, nil
}

// Delete removes a draft entry and its lines. Admin only, by policy.
func (s *Service) Delete(ctx context.Context, actorID, orgID, id int64) error {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpJournalDelete); err != nil {
		return err
	}
	var deleted Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if current.Status == StatusApproved {
			return ErrApprovedImmutable
		}
		deleted = current
		return tx.DeleteEntry(ctx, current.ID)
	})
	if err != nil {
		return err
	}
	s.afterMutation(ctx, deleted, actorID, "journal.delete", nil)
	return nil
}

// checkPostable rejects closed periods and dates outside the period bounds.
func checkPostable(period periods.Period, date time.Time) error {
	if period.IsClosed {
		return periods.ErrPeriodClosed
	}
	if !period.Contains(date) {
		return shared.EDetail(shared.KindValidation, "entry date outside accounting period", map[string]any{
			"entry_date":   date.Format("2006-01-02"),
			"period_start": period.StartDate.Format("2006-01-02"),
			"period_end":   period.EndDate.Format("2006-01-02"),
		})
	}
	return nil
}

// checkReferences verifies account and partner ids by set equality: the
// count of distinct rows found must match the count of distinct ids asked for.
func checkReferences(ctx context.Context, tx TxRepository, orgID int64, lines []LineInput) error {
	accountIDs := lineAccountIDs(lines)
	found, err := tx.CountAccounts(ctx, orgID, accountIDs)
	if err != nil {
		return err
	}
	if found != len(accountIDs) {
		return ErrUnknownAccount
	}
	if partnerIDs := linePartnerIDs(lines); len(partnerIDs) > 0 {
		found, err := tx.CountPartners(ctx, orgID, partnerIDs)
		if err != nil {
			return err
		}
		if found != len(partnerIDs) {
			return ErrUnknownPartner
		}
	}
	return nil
}

func (s *Service) afterMutation(ctx context.Context, entry Entry, actorID int64, action string, meta map[string]any) {
	if s.audit != nil {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["entry_number"] = entry.EntryNumber
		meta["status"] = entry.Status
		_ = s.audit.Record(ctx, shared.AuditLog{
			OrgID:    entry.OrgID,
			ActorID:  actorID,
			Action:   action,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     meta,
			At:       s.now(),
		})
	}
	if s.invalidate != nil {
		s.invalidate.InvalidateReports(ctx, entry.OrgID)
	}
}
