package periods

import (
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Period is a bounded date range within which journal entries are dated.
// Closing it freezes posting into the range; reopening lifts the freeze.
type Period struct {
	ID        int64      `json:"id"`
	OrgID     int64      `json:"org_id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	IsClosed  bool       `json:"is_closed"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	ClosedBy  *int64     `json:"closed_by,omitempty"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Contains reports whether the date falls inside the period, bounds inclusive.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Overlaps implements the inclusive-bounds interval intersection test.
func (p Period) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}

// CreateInput groups parameters for creating a period.
type CreateInput struct {
	OrgID     int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	ActorID   int64
}

// Validate ensures the create input is coherent.
func (in CreateInput) Validate() error {
	if in.OrgID == 0 {
		return shared.E(shared.KindValidation, "organization required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return shared.E(shared.KindValidation, "period name required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return shared.E(shared.KindValidation, "start and end date required")
	}
	if !in.StartDate.Before(in.EndDate) {
		return shared.E(shared.KindValidation, "start date must be before end date")
	}
	return nil
}

// UpdateRangeInput carries a date-range change for an open period.
type UpdateRangeInput struct {
	OrgID     int64
	PeriodID  int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Version   int64
	ActorID   int64
}

// Validate ensures the update input is coherent.
func (in UpdateRangeInput) Validate() error {
	if in.OrgID == 0 || in.PeriodID == 0 {
		return shared.E(shared.KindValidation, "organization and period required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return shared.E(shared.KindValidation, "start and end date required")
	}
	if !in.StartDate.Before(in.EndDate) {
		return shared.E(shared.KindValidation, "start date must be before end date")
	}
	return nil
}

var (
	// ErrPeriodOverlap indicates the requested range collides with an existing period.
	ErrPeriodOverlap = shared.E(shared.KindValidation, "period overlaps an existing period")
	// ErrPeriodClosed indicates posting into a closed period.
	ErrPeriodClosed = shared.E(shared.KindInvalidOperation, "period closed")
	// ErrPeriodNotFound distinguishes a missing period from a closed one.
	ErrPeriodNotFound = shared.E(shared.KindNotFound, "accounting period not found")
	// ErrOpenEntries blocks closing while non-final entries remain in the period.
	ErrOpenEntries = shared.E(shared.KindInvalidOperation, "period has draft entries and cannot be closed")
	// ErrPeriodHasEntries blocks deleting a period containing entries.
	ErrPeriodHasEntries = shared.E(shared.KindInvalidOperation, "period contains journal entries and cannot be deleted")
	// ErrLastOpenPeriod blocks deleting the organization's sole open period.
	ErrLastOpenPeriod = shared.E(shared.KindValidation, "last active period cannot be deleted")
	// ErrEntriesOutOfRange blocks shrinking a range past existing entry dates.
	ErrEntriesOutOfRange = shared.E(shared.KindValidation, "entries would become out of range")
)
