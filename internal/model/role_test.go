package model

import "testing"

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role Role
		priv Privilege
		want bool
	}{
		{RoleAdmin, PrivUserDelete, true},
		{RoleRegular, PrivUserDelete, false},
		{RoleRegular, PrivUserCreate, false},
		{RoleRegular, PrivItemView, true},
		{RoleRegular, PrivTransactionCreate, true},
		{RoleRegular, PrivCategoryDelete, false},
		{RoleAdmin, PrivTransactionCreate, true},
		{Role("GUEST"), PrivItemView, false},
		{RoleAdmin, Privilege("unknown:thing"), false},
	}
	for _, tt := range tests {
		if got := tt.role.Can(tt.priv); got != tt.want {
			t.Errorf("%s.Can(%s) = %v, want %v", tt.role, tt.priv, got, tt.want)
		}
	}
}

func TestRole_AtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleRegular) {
		t.Error("admin must satisfy regular")
	}
	if RoleRegular.AtLeast(RoleAdmin) {
		t.Error("regular must not satisfy admin")
	}
	if Role("").AtLeast(RoleRegular) {
		t.Error("empty role must satisfy nothing")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" admin "); !ok || r != RoleAdmin {
		t.Errorf("ParseRole(admin) = %v, %v", r, ok)
	}
	if _, ok := ParseRole("manager"); ok {
		t.Error("manager is not a role in this system")
	}
}

func TestParseTransactionKind(t *testing.T) {
	for in, want := range map[string]TransactionKind{"addition": TxAddition, "REMOVAL": TxRemoval, "Adjustment": TxAdjustment} {
		if got, ok := ParseTransactionKind(in); !ok || got != want {
			t.Errorf("ParseTransactionKind(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseTransactionKind("transfer"); ok {
		t.Error("transfer is not a transaction kind")
	}
}
