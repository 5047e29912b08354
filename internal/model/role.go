package model

import "strings"

// Role is a closed set. Ordering is by Rank: a higher rank may do everything a lower one can.
type Role string

const (
	RoleRegular Role = "REGULAR"
	RoleAdmin   Role = "ADMIN"
)

var roleRanks = map[Role]int{
	RoleRegular: 1,
	RoleAdmin:   2,
}

// ParseRole accepts any letter case and rejects unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleRanks[r]
	return r, ok
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank is 0 for unknown roles, which therefore satisfy no requirement.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r meets the required minimum role.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && required.Valid() && r.Rank() >= required.Rank()
}

// Can reports whether r is allowed the privilege. Unknown privileges are denied.
func (r Role) Can(p Privilege) bool {
	required, ok := Capabilities[p]
	if !ok {
		return false
	}
	return r.AtLeast(required)
}

// Privilege names an operation guarded by the access table below.
type Privilege string

const (
	PrivUserView   Privilege = "user:view"
	PrivUserCreate Privilege = "user:create"
	PrivUserUpdate Privilege = "user:update"
	PrivUserDelete Privilege = "user:delete"

	PrivCategoryView   Privilege = "category:view"
	PrivCategoryCreate Privilege = "category:create"
	PrivCategoryUpdate Privilege = "category:update"
	PrivCategoryDelete Privilege = "category:delete"

	PrivItemView   Privilege = "item:view"
	PrivItemCreate Privilege = "item:create"
	PrivItemUpdate Privilege = "item:update"
	PrivItemDelete Privilege = "item:delete"

	PrivTransactionView   Privilege = "transaction:view"
	PrivTransactionCreate Privilege = "transaction:create"

	PrivReportView  Privilege = "report:view"
	PrivLedgerAudit Privilege = "ledger:audit"
)

// Capabilities is the minimum role for every guarded operation.
var Capabilities = map[Privilege]Role{
	PrivUserView:   RoleAdmin,
	PrivUserCreate: RoleAdmin,
	PrivUserUpdate: RoleAdmin,
	PrivUserDelete: RoleAdmin,

	PrivCategoryView:   RoleRegular,
	PrivCategoryCreate: RoleAdmin,
	PrivCategoryUpdate: RoleAdmin,
	PrivCategoryDelete: RoleAdmin,

	PrivItemView:   RoleRegular,
	PrivItemCreate: RoleAdmin,
	PrivItemUpdate: RoleAdmin,
	PrivItemDelete: RoleAdmin,

	PrivTransactionView:   RoleRegular,
	PrivTransactionCreate: RoleRegular,

	PrivReportView:  RoleRegular,
	PrivLedgerAudit: RoleAdmin,
}
