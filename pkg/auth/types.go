// Package auth carries caller identity through the core. Watchdog
// status is decided by the registry (the canonical source); the
// governance and manager roles originate outside the core and arrive
// on the Principal, verified at the boundary by pkg/identity.
package auth

// Role names recognized by the core.
const (
	// RoleGovernance may update consensus parameters and manage the
	// watchdog registry.
	RoleGovernance = "governance"
	// RoleManager may clear emergency pauses.
	RoleManager = "manager"
)

// Principal is any entity making a request.
type Principal interface {
	ID() string
	Roles() []string
	HasRole(role string) bool
}

// BasePrincipal is a simple Principal implementation.
type BasePrincipal struct {
	PrincipalID    string
	PrincipalRoles []string
}

// ID returns the principal's identity.
func (b *BasePrincipal) ID() string { return b.PrincipalID }

// Roles returns the principal's roles.
func (b *BasePrincipal) Roles() []string { return b.PrincipalRoles }

// HasRole reports whether the principal holds the given role.
func (b *BasePrincipal) HasRole(role string) bool {
	for _, r := range b.PrincipalRoles {
		if r == role {
			return true
		}
	}
	return false
}
