package token

import "strings"

// RoleKind tags the three forms of a role specification.
type RoleKind int

const (
	// RealmRole requires a realm-level role ("realm:admin").
	RealmRole RoleKind = iota
	// ScopedRole requires a role within a named client ("app1:editor").
	ScopedRole
	// ImplicitRole requires a role within the caller's own client ("viewer").
	ImplicitRole
)

// RoleSpec is an ephemeral, parsed role specification.
type RoleSpec struct {
	Kind   RoleKind
	Client string
	Name   string
}

// ParseRoleSpec interprets a role specification string. The rules apply in
// order:
//
//  1. A "realm:" prefix names a realm-level role.
//  2. Otherwise, a string containing a colon is split on the first colon:
//     the left part names the target client, the right part the role.
//  3. Otherwise, the whole string names a role within the caller's own client.
func ParseRoleSpec(spec string) RoleSpec {
	if rest, ok := strings.CutPrefix(spec, "realm:"); ok {
		return RoleSpec{Kind: RealmRole, Name: rest}
	}
	if client, name, ok := strings.Cut(spec, ":"); ok {
		return RoleSpec{Kind: ScopedRole, Client: client, Name: name}
	}
	return RoleSpec{Kind: ImplicitRole, Name: spec}
}
