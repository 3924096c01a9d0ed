package journal

import (
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// EntryStatus enumerates journal entry lifecycle values. Transitions are
// forward only: draft -> approved, draft -> cancelled. Approved is terminal.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "draft"
	StatusApproved  EntryStatus = "approved"
	StatusCancelled EntryStatus = "cancelled"
)

// Entry is one balanced double-entry transaction.
type Entry struct {
	ID          int64       `json:"id"`
	OrgID       int64       `json:"org_id"`
	PeriodID    int64       `json:"accounting_period_id"`
	EntryNumber string      `json:"entry_number"`
	EntryDate   time.Time   `json:"entry_date"`
	Description string      `json:"description"`
	Status      EntryStatus `json:"status"`
	CreatedBy   int64       `json:"created_by"`
	ApprovedBy  *int64      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time  `json:"approved_at,omitempty"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Lines       []Line      `json:"lines,omitempty"`
}

// Line carries a single debit or credit against an account.
type Line struct {
	ID          int64    `json:"id"`
	EntryID     int64    `json:"journal_entry_id"`
	LineNumber  int      `json:"line_number"`
	AccountID   int64    `json:"account_id"`
	Debit       float64  `json:"debit_amount"`
	Credit      float64  `json:"credit_amount"`
	Description string   `json:"description,omitempty"`
	PartnerID   *int64   `json:"partner_id,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"`
}

var (
	// ErrEntryNotFound indicates the entry does not exist in the organization.
	ErrEntryNotFound = shared.E(shared.KindNotFound, "journal entry not found")
	// ErrApprovedImmutable rejects any mutation of an approved entry.
	ErrApprovedImmutable = shared.E(shared.KindInvalidOperation, "approved entries are immutable")
	// ErrNotDraft rejects approval of a non-draft entry.
	ErrNotDraft = shared.E(shared.KindInvalidOperation, "only draft entries can be approved")
	// ErrNoLines rejects an entry submitted without lines.
	ErrNoLines = shared.E(shared.KindValidation, "journal entry has no lines")
	// ErrTooFewLines rejects an entry with fewer than two lines.
	ErrTooFewLines = shared.E(shared.KindValidation, "journal entry requires at least two lines")
	// ErrUnknownAccount rejects lines referencing accounts outside the organization.
	ErrUnknownAccount = shared.E(shared.KindValidation, "one or more accounts not found in organization")
	// ErrUnknownPartner rejects lines referencing partners outside the organization.
	ErrUnknownPartner = shared.E(shared.KindValidation, "one or more partners not found in organization")
	// ErrDuplicateNumber maps the unique (org_id, entry_number) index violation.
	ErrDuplicateNumber = shared.E(shared.KindValidation, "entry number already exists in this organization")
)
