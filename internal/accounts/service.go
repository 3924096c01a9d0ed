package accounts

import (
	"context"
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

// Service applies chart of accounts rules.
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

// List returns the organization's chart of accounts ordered by code.
func (s *Service) List(ctx context.Context, actorID, orgID int64) ([]Account, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountView); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, orgID)
}

// Get returns a single account in the organization.
func (s *Service) Get(ctx context.Context, actorID, orgID, id int64) (Account, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountView); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// Create inserts a new account after parent validation.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpAccountWrite); err != nil {
		return Account{}, err
	}
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, in.OrgID, *in.ParentID); err != nil {
			return Account{}, shared.E(shared.KindValidation, "parent account not found in organization")
		}
	}
	acc, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, acc, in.ActorID, "account.create")
	return acc, nil
}

// Update mutates an existing account. Parent changes are re-validated the
// same way as creation, plus the self-parent check.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	if in.OrgID == 0 || in.AccountID == 0 {
		return Account{}, shared.E(shared.KindValidation, "organization and account required")
	}
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpAccountWrite); err != nil {
		return Account{}, err
	}
	acc, err := s.repo.Get(ctx, in.OrgID, in.AccountID)
	if err != nil {
		return Account{}, err
	}
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			return Account{}, shared.E(shared.KindValidation, "account code required")
		}
		acc.Code = code
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Account{}, shared.E(shared.KindValidation, "account name required")
		}
		acc.Name = name
	}
	if in.Category != nil {
		acc.Category = *in.Category
	}
	if in.IsActive != nil {
		acc.IsActive = *in.IsActive
	}
	if in.ClearPID {
		acc.ParentID = nil
	} else if in.ParentID != nil {
		if *in.ParentID == acc.ID {
			return Account{}, shared.E(shared.KindValidation, "account cannot be its own parent")
		}
		if _, err := s.repo.Get(ctx, in.OrgID, *in.ParentID); err != nil {
			return Account{}, shared.E(shared.KindValidation, "parent account not found in organization")
		}
		acc.ParentID = in.ParentID
	}
	updated, err := s.repo.Update(ctx, acc)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, updated, in.ActorID, "account.update")
	return updated, nil
}

// Delete removes an unreferenced account without children.
func (s *Service) Delete(ctx context.Context, actorID, orgID, id int64) error {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountDelete); err != nil {
		return err
	}
	acc, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, orgID, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.E(shared.KindInvalidOperation, "account has child accounts and cannot be deleted")
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return shared.E(shared.KindInvalidOperation, "account is referenced by journal entries and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.record(ctx, acc, actorID, "account.delete")
	return nil
}

func (s *Service) record(ctx context.Context, acc Account, actorID int64, action string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    acc.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: acc.Code,
		Meta:     map[string]any{"id": acc.ID, "name": acc.Name, "type": acc.Type},
		At:       s.now(),
	})
}
