package accounts

import (
	"strings"
	"time"

	"github.com/meridian-books/meridian-books/internal/shared"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether the account type is known.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// DebitNormal reports whether debits increase the account balance.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account models a chart of accounts node scoped to an organization.
type Account struct {
	ID        int64       `json:"id"`
	OrgID     int64       `json:"org_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Category  string      `json:"category,omitempty"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateInput groups fields for creating an account.
type CreateInput struct {
	OrgID    int64
	Code     string
	Name     string
	Type     AccountType
	Category string
	ParentID *int64
	ActorID  int64
}

// Validate ensures the input meets minimum criteria.
func (in CreateInput) Validate() error {
	if in.OrgID == 0 {
		return shared.E(shared.KindValidation, "organization required")
	}
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return shared.E(shared.KindValidation, "account code and name required")
	}
	if !in.Type.Valid() {
		return shared.E(shared.KindValidation, "account type must be asset, liability, equity, revenue, or expense")
	}
	return nil
}

// UpdateInput groups fields for mutating an account. Nil pointers leave the
// field untouched.
type UpdateInput struct {
	OrgID     int64
	AccountID int64
	Code      *string
	Name      *string
	Category  *string
	ParentID  *int64
	ClearPID  bool
	IsActive  *bool
	ActorID   int64
}
