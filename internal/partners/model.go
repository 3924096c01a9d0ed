package partners

import (
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// Kind classifies a business partner for receivable/payable reporting.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindVendor   Kind = "vendor"
)

// Valid reports whether k is a known partner kind.
func (k Kind) Valid() bool {
	return k == KindCustomer || k == KindVendor
}

// Partner is a counterparty referenced from journal entry lines.
type Partner struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput groups fields for registering a partner.
type CreateInput struct {
	OrgID   int64
	Code    string
	Name    string
	Kind    Kind
	Email   string
	Phone   string
	ActorID int64
}

// Validate applies field-level checks.
func (in CreateInput) Validate() error {
	if in.OrgID == 0 {
		return shared.E(shared.KindValidation, "organization required")
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return shared.E(shared.KindValidation, "code and name required")
	}
	if !in.Kind.Valid() {
		return shared.E(shared.KindValidation, "kind must be customer or vendor")
	}
	return nil
}

// UpdateInput mutates a partner. Nil pointers leave fields untouched.
type UpdateInput struct {
	OrgID     int64
	PartnerID int64
	Name      *string
	Email     *string
	Phone     *string
	IsActive  *bool
	ActorID   int64
}
