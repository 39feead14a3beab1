package token

import "testing"

func TestParseRoleSpec(t *testing.T) {
	tests := []struct {
		spec string
		want RoleSpec
	}{
		{"realm:admin", RoleSpec{Kind: RealmRole, Name: "admin"}},
		{"app1:editor", RoleSpec{Kind: ScopedRole, Client: "app1", Name: "editor"}},
		{"viewer", RoleSpec{Kind: ImplicitRole, Name: "viewer"}},
		// the realm: prefix wins over the generic colon rule
		{"realm:special:role", RoleSpec{Kind: RealmRole, Name: "special:role"}},
		// split happens on the first colon only
		{"app1:ns:editor", RoleSpec{Kind: ScopedRole, Client: "app1", Name: "ns:editor"}},
		// degenerate inputs still parse deterministically
		{"", RoleSpec{Kind: ImplicitRole, Name: ""}},
		{":role", RoleSpec{Kind: ScopedRole, Client: "", Name: "role"}},
		{"realm:", RoleSpec{Kind: RealmRole, Name: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := ParseRoleSpec(tt.spec); got != tt.want {
				t.Errorf("ParseRoleSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}
