package accesskit

import (
	"fmt"
	"math/bits"
	"strings"
)

// Permission is a capability token from the closed marketplace enumeration.
// The zero value is not a valid permission.
type Permission uint8

// Marketplace permissions. The string form is "resource:action".
const (
	PermServiceView Permission = iota + 1
	PermServiceCreate
	PermServiceEdit
	PermServiceDelete

	PermBookingView
	PermBookingCreate
	PermBookingManage
	PermBookingCancel

	PermProjectView
	PermProjectCreate
	PermProjectEdit
	PermProjectDelete

	PermUserView
	PermUserInvite
	PermUserManage

	PermTeamView
	PermTeamManage

	PermOrganizationView
	PermOrganizationManage

	PermRoleView
	PermRoleManage

	PermVerificationView
	PermVerificationReview

	PermAnalyticsView

	PermBillingView
	PermBillingManage

	// PermPlatformAdmin bypasses organization matching on resource-scoped checks.
	PermPlatformAdmin

	permSentinel
)

var permissionTokens = [...]string{
	PermServiceView:        "service:view",
	PermServiceCreate:      "service:create",
	PermServiceEdit:        "service:edit",
	PermServiceDelete:      "service:delete",
	PermBookingView:        "booking:view",
	PermBookingCreate:      "booking:create",
	PermBookingManage:      "booking:manage",
	PermBookingCancel:      "booking:cancel",
	PermProjectView:        "project:view",
	PermProjectCreate:      "project:create",
	PermProjectEdit:        "project:edit",
	PermProjectDelete:      "project:delete",
	PermUserView:           "user:view",
	PermUserInvite:         "user:invite",
	PermUserManage:         "user:manage",
	PermTeamView:           "team:view",
	PermTeamManage:         "team:manage",
	PermOrganizationView:   "organization:view",
	PermOrganizationManage: "organization:manage",
	PermRoleView:           "role:view",
	PermRoleManage:         "role:manage",
	PermVerificationView:   "verification:view",
	PermVerificationReview: "verification:review",
	PermAnalyticsView:      "analytics:view",
	PermBillingView:        "billing:view",
	PermBillingManage:      "billing:manage",
	PermPlatformAdmin:      "platform:admin",
}

var permissionsByToken = func() map[string]Permission {
	m := make(map[string]Permission, len(permissionTokens))
	for i, tok := range permissionTokens {
		if tok != "" {
			m[tok] = Permission(i)
		}
	}
	return m
}()

// AllPermissions returns every permission in declaration order.
func AllPermissions() []Permission {
	all := make([]Permission, 0, int(permSentinel)-1)
	for p := Permission(1); p < permSentinel; p++ {
		all = append(all, p)
	}
	return all
}

// Valid reports whether p belongs to the enumeration.
func (p Permission) Valid() bool {
	return p > 0 && p < permSentinel
}

func (p Permission) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Permission(%d)", uint8(p))
	}
	return permissionTokens[p]
}

// Resource returns the namespace part of the token, e.g. "service".
func (p Permission) Resource() string {
	res, _, _ := strings.Cut(p.String(), ":")
	return res
}

// Action returns the action part of the token, e.g. "view".
func (p Permission) Action() string {
	_, act, _ := strings.Cut(p.String(), ":")
	return act
}

// ParsePermission converts a token such as "service:view" into a Permission.
// Unknown tokens are rejected with ErrInvalidPermission.
func ParsePermission(token string) (Permission, error) {
	if p, ok := permissionsByToken[strings.TrimSpace(token)]; ok {
		return p, nil
	}
	return 0, NewError(ErrInvalidPermission, fmt.Sprintf("unknown permission token %q", token))
}

// MustParsePermission is like ParsePermission but panics on unknown tokens.
func MustParsePermission(token string) Permission {
	p, err := ParsePermission(token)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePermissions parses a list of tokens, failing on the first unknown one.
func ParsePermissions(tokens []string) ([]Permission, error) {
	perms := make([]Permission, 0, len(tokens))
	for _, tok := range tokens {
		p, err := ParsePermission(tok)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, NewError(ErrInvalidPermission, p.String())
	}
	return []byte(permissionTokens[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. JSON and YAML decoding
// go through here, so unknown tokens never reach the evaluator.
func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PermissionSet is a bitset over the permission enumeration.
type PermissionSet uint64

// NewPermissionSet builds a set from the given permissions. Invalid values are ignored.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.Add(p)
	}
	return s
}

// Add returns a copy of s with p included.
func (s PermissionSet) Add(p Permission) PermissionSet {
	if !p.Valid() {
		return s
	}
	return s | 1<<p
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	return p.Valid() && s&(1<<p) != 0
}

// Union returns the permissions held by either set.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	return s | other
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Slice returns the permissions in declaration order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, s.Len())
	for p := Permission(1); p < permSentinel; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings returns the tokens of the permissions in the set.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}

// MatchPattern checks if a catalog pattern covers a permission.
//
// Supported patterns:
//   - "*" matches every permission
//   - "project:*" matches every action on a resource
//   - "*:view" matches an action on every resource
//   - "project:view" matches exactly
func MatchPattern(pattern string, p Permission) bool {
	if !p.Valid() {
		return false
	}
	if pattern == "*" {
		return true
	}
	res, act, ok := strings.Cut(pattern, ":")
	if !ok {
		return false
	}
	return (res == "*" || res == p.Resource()) && (act == "*" || act == p.Action())
}

// ExpandPattern resolves a catalog pattern into concrete permissions.
// Patterns are a definition-time convenience only; a pattern that covers
// nothing is rejected so that typos fail fast.
func ExpandPattern(pattern string) ([]Permission, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, NewError(ErrInvalidPermission, "permission pattern cannot be empty")
	}
	if !strings.Contains(pattern, "*") {
		p, err := ParsePermission(pattern)
		if err != nil {
			return nil, err
		}
		return []Permission{p}, nil
	}

	var out []Permission
	for p := Permission(1); p < permSentinel; p++ {
		if MatchPattern(pattern, p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, NewError(ErrInvalidPermission, fmt.Sprintf("pattern %q matches no permission", pattern))
	}
	return out, nil
}
