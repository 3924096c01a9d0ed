package journal

import (
	"math"
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// balanceTolerance is the permitted absolute debit/credit difference, in
// currency units.
const balanceTolerance = 0.01

// LineInput describes one journal line in a posting request.
type LineInput struct {
	LineNumber  int      `json:"line_number"`
	AccountID   int64    `json:"account_id"`
	Debit       float64  `json:"debit_amount"`
	Credit      float64  `json:"credit_amount"`
	Description string   `json:"description"`
	PartnerID   *int64   `json:"partner_id"`
	TaxRate     *float64 `json:"tax_rate"`
}

// CreateInput groups fields required to create a journal entry.
type CreateInput struct {
	OrgID       int64
	PeriodID    int64
	EntryNumber string
	EntryDate   time.Time
	Description string
	Lines       []LineInput
	ActorID     int64
}

// Validate applies the fail-fast header and line checks that do not need
// database state. Period and reference checks happen inside the transaction.
func (in CreateInput) Validate() error {
	if in.OrgID == 0 {
		return shared.E(shared.KindValidation, "organization required")
	}
	if in.PeriodID == 0 {
		return shared.E(shared.KindValidation, "accounting period required")
	}
	if strings.TrimSpace(in.EntryNumber) == "" || strings.TrimSpace(in.Description) == "" || in.EntryDate.IsZero() {
		return shared.E(shared.KindValidation, "entry_number, entry_date and description required")
	}
	return validateLines(in.Lines)
}

// UpdateInput mutates a draft entry. Nil header pointers leave fields
// untouched; a nil Lines slice keeps the existing lines.
type UpdateInput struct {
	OrgID       int64
	EntryID     int64
	PeriodID    *int64
	EntryDate   *time.Time
	EntryNumber *string
	Description *string
	Lines       []LineInput
	Version     int64
	ActorID     int64
}

// validateLines enforces the line-level invariants: at least two lines,
// each single-sided with a strictly positive amount, and debits balancing
// credits within tolerance.
func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	if len(lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range lines {
		if line.AccountID == 0 {
			return shared.EDetail(shared.KindValidation, "line missing account", map[string]any{"line": idx + 1})
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.EDetail(shared.KindValidation, "line amounts must not be negative", map[string]any{"line": idx + 1})
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.EDetail(shared.KindValidation, "line cannot carry both a debit and a credit", map[string]any{"line": idx + 1})
		}
		if line.Debit == 0 && line.Credit == 0 {
			return shared.EDetail(shared.KindValidation, "line must carry a debit or a credit", map[string]any{"line": idx + 1})
		}
		debit += line.Debit
		credit += line.Credit
	}
	if diff := debit - credit; math.Abs(diff) > balanceTolerance {
		return shared.EDetail(shared.KindValidation, "journal lines must balance", map[string]any{
			"debit_total":  debit,
			"credit_total": credit,
			"difference":   diff,
		})
	}
	return nil
}

// normalizeLines assigns 1-based line numbers in array order for lines that
// did not supply one.
func normalizeLines(lines []LineInput) []LineInput {
	out := make([]LineInput, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].LineNumber == 0 {
			out[i].LineNumber = i + 1
		}
	}
	return out
}

// distinctIDs collects unique non-zero ids.
func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func lineAccountIDs(lines []LineInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	return distinctIDs(ids)
}

func linePartnerIDs(lines []LineInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if line.PartnerID != nil {
			ids = append(ids, *line.PartnerID)
		}
	}
	return distinctIDs(ids)
}

// ListFilter scopes entry listings.
type ListFilter struct {
	PeriodID int64
	Status   EntryStatus
	Page     int
	PerPage  int
}
