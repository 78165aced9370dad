package contract

import (
	"fmt"

	"prodtrace/model"
)

// AccessGuard is a stateless policy evaluator composed over the role
// registry. It is consulted at the top of every mutating ledger operation
// and never mutates state itself; its only side effect is the returned
// failure.
type AccessGuard struct {
	registry *RoleRegistry
}

// NewAccessGuard creates a guard reading from the given registry.
func NewAccessGuard(registry *RoleRegistry) *AccessGuard {
	return &AccessGuard{registry: registry}
}

// RequireAnyOf fails with ErrUnauthorized unless caller holds at least one
// of the listed roles.
func (g *AccessGuard) RequireAnyOf(caller string, roles ...model.Role) error {
	for _, role := range roles {
		has, err := g.registry.Has(caller, role)
		if err != nil {
			return fmt.Errorf("error checking role '%s' for caller '%s': %w", role, caller, err)
		}
		if has {
			return nil
		}
	}
	return fmt.Errorf("%w: caller '%s' holds none of the required roles %v", ErrUnauthorized, caller, roles)
}

// RequireOwner fails with ErrNotOwner unless caller is the record's owner.
func (g *AccessGuard) RequireOwner(caller, owner string) error {
	if caller != owner {
		return fmt.Errorf("%w: caller '%s' did not register this product", ErrNotOwner, caller)
	}
	return nil
}
