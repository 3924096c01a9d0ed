package shared

// Role is a member's role within an organization.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleViewer     Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleAccountant: 2,
	RoleAdmin:      3,
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role meets the required minimum.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Operation names a guarded API operation.
type Operation string

const (
	OpAccountView   Operation = "accounts.view"
	OpAccountWrite  Operation = "accounts.write"
	OpAccountDelete Operation = "accounts.delete"

	OpPeriodView   Operation = "periods.view"
	OpPeriodWrite  Operation = "periods.write"
	OpPeriodClose  Operation = "periods.close"
	OpPeriodReopen Operation = "periods.reopen"
	OpPeriodDelete Operation = "periods.delete"

	OpJournalView    Operation = "journal.view"
	OpJournalWrite   Operation = "journal.write"
	OpJournalApprove Operation = "journal.approve"
	OpJournalDelete  Operation = "journal.delete"

	OpReportView Operation = "reports.view"

	OpOrgManage Operation = "org.manage"
)

// policy declares the minimum role for every operation. Keeping the table
// in one place replaces scattered per-call role checks.
var policy = map[Operation]Role{
	OpAccountView:   RoleViewer,
	OpAccountWrite:  RoleAccountant,
	OpAccountDelete: RoleAccountant,

	OpPeriodView:   RoleViewer,
	OpPeriodWrite:  RoleAccountant,
	OpPeriodClose:  RoleAccountant,
	OpPeriodReopen: RoleAdmin,
	OpPeriodDelete: RoleAdmin,

	OpJournalView:    RoleViewer,
	OpJournalWrite:   RoleAccountant,
	OpJournalApprove: RoleAccountant,
	OpJournalDelete:  RoleAdmin,

	OpReportView: RoleViewer,

	OpOrgManage: RoleAdmin,
}

// RequiredRole returns the minimum role for the operation. Unknown
// operations require admin.
func RequiredRole(op Operation) Role {
	if min, ok := policy[op]; ok {
		return min
	}
	return RoleAdmin
}

// Authorize checks a member role against the policy table.
func Authorize(role Role, op Operation) error {
	if !role.Valid() {
		return ErrForbidden
	}
	if !role.AtLeast(RequiredRole(op)) {
		return E(KindInsufficientRole, string(op)+" requires role "+string(RequiredRole(op)))
	}
	return nil
}
