package partners

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

// Service manages business partners.
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

// List returns the org's partners, optionally filtered by kind.
func (s *Service) List(ctx context.Context, actorID, orgID int64, kind Kind) ([]Partner, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountView); err != nil {
		return nil, err
	}
	if kind != "" && !kind.Valid() {
		return nil, shared.E(shared.KindValidation, "kind must be customer or vendor")
	}
	return s.repo.List(ctx, orgID, kind)
}

// Get returns one partner by id.
func (s *Service) Get(ctx context.Context, actorID, orgID, id int64) (Partner, error) {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountView); err != nil {
		return Partner{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// Create registers a partner.
func (s *Service) Create(ctx context.Context, in CreateInput) (Partner, error) {
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpAccountWrite); err != nil {
		return Partner{}, err
	}
	if err := in.Validate(); err != nil {
		return Partner{}, err
	}
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	p, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Partner{}, err
	}
	s.record(ctx, p, in.ActorID, "partner.create")
	return p, nil
}

// Update mutates a partner's mutable fields.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Partner, error) {
	if err := s.guard.Guard(ctx, in.ActorID, in.OrgID, shared.OpAccountWrite); err != nil {
		return Partner{}, err
	}
	current, err := s.repo.Get(ctx, in.OrgID, in.PartnerID)
	if err != nil {
		return Partner{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Partner{}, shared.E(shared.KindValidation, "name required")
		}
		current.Name = name
	}
	if in.Email != nil {
		current.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		current.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Partner{}, err
	}
	s.record(ctx, updated, in.ActorID, "partner.update")
	return updated, nil
}

// Delete removes a partner that has no journal references.
func (s *Service) Delete(ctx context.Context, actorID, orgID, id int64) error {
	if err := s.guard.Guard(ctx, actorID, orgID, shared.OpAccountDelete); err != nil {
		return err
	}
	p, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.record(ctx, p, actorID, "partner.delete")
	return nil
}

func (s *Service) record(ctx context.Context, p Partner, actorID int64, action string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    p.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "partner",
		EntityID: fmt.Sprintf("%d", p.ID),
		Meta:     map[string]any{"code": p.Code, "kind": p.Kind},
		At:       s.now(),
	})
}
