package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var regLogger = flogging.MustGetLogger("prodtrace.rolereg")

// roleAssignmentObjectType is the composite-key object type for role
// assignments. Attributes: [role, identity], so members of a role can be
// listed with a partial-key scan.
const roleAssignmentObjectType = "RoleAssignment"

// RoleRegistry is the single source of truth for which identities hold
// which roles. It owns the role-assignment relation exclusively; nothing
// else writes those keys.
type RoleRegistry struct {
	Ctx contractapi.TransactionContextInterface
}

// NewRoleRegistry creates a registry bound to the given transaction context.
func NewRoleRegistry(ctx contractapi.TransactionContextInterface) *RoleRegistry {
	return &RoleRegistry{Ctx: ctx}
}

// ParseRole normalizes and validates a role name supplied over the wire.
func ParseRole(role string) (model.Role, error) {
	r := model.Role(strings.ToLower(strings.TrimSpace(role)))
	if !model.ValidRoles[r] {
		return "", fmt.Errorf("invalid role '%s'. Valid roles are: %s, %s, %s, %s",
			role, model.RoleAdmin, model.RoleManufacturer, model.RoleDistributor, model.RoleRetailer)
	}
	return r, nil
}

func (r *RoleRegistry) createAssignmentKey(role model.Role, identity string) (string, error) {
	return r.Ctx.GetStub().CreateCompositeKey(roleAssignmentObjectType, []string{string(role), identity})
}

func (r *RoleRegistry) getCurrentTxTimestamp() (time.Time, error) {
	ts, err := r.Ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// Has reports whether identity currently holds role. Pure lookup, no side
// effects; an identity with no assignment record simply does not hold it.
func (r *RoleRegistry) Has(identity string, role model.Role) (bool, error) {
	key, err := r.createAssignmentKey(role, identity)
	if err != nil {
		return false, fmt.Errorf("failed to create assignment key for role '%s': %w", role, err)
	}
	assignmentBytes, err := r.Ctx.GetStub().GetState(key)
	if err != nil {
		return false, fmt.Errorf("ledger error checking role '%s' for identity '%s': %w", role, identity, err)
	}
	return assignmentBytes != nil, nil
}

// requireAdmin verifies that caller holds the admin role.
func (r *RoleRegistry) requireAdmin(caller string) error {
	isAdmin, err := r.Has(caller, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to verify caller admin status: %w", err)
	}
	if !isAdmin {
		return fmt.Errorf("%w: caller '%s' does not hold role '%s'", ErrUnauthorized, caller, model.RoleAdmin)
	}
	return nil
}

// Grant assigns role to target. Only admins may grant; granting an
// already-held role is a silent success and emits no event.
func (r *RoleRegistry) Grant(caller string, role model.Role, target string) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}

	already, err := r.Has(target, role)
	if err != nil {
		return err
	}
	if already {
		regLogger.Infof("Role '%s' already granted to '%s'. No action needed.", role, target)
		return nil
	}

	now, err := r.getCurrentTxTimestamp()
	if err != nil {
		return err
	}
	assignment := model.RoleAssignment{
		ObjectType: roleAssignmentObjectType,
		Role:       role,
		Identity:   target,
		GrantedBy:  caller,
		GrantedAt:  now,
	}
	assignmentBytes, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("failed to marshal role assignment for '%s': %w", target, err)
	}
	key, err := r.createAssignmentKey(role, target)
	if err != nil {
		return fmt.Errorf("failed to create assignment key for role '%s': %w", role, err)
	}
	if err := r.Ctx.GetStub().PutState(key, assignmentBytes); err != nil {
		return fmt.Errorf("failed to save role assignment for '%s': %w", target, err)
	}

	emitEvent(r.Ctx, "RoleGranted", map[string]interface{}{
		"role": role, "account": target, "sender": caller,
	})
	regLogger.Infof("Role '%s' granted to '%s' by admin '%s'.", role, target, caller)
	return nil
}

// Revoke removes role from target. Only admins may revoke; revoking a role
// the target does not hold is a silent success and emits no event.
func (r *RoleRegistry) Revoke(caller string, role model.Role, target string) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}

	held, err := r.Has(target, role)
	if err != nil {
		return err
	}
	if !held {
		regLogger.Infof("Role '%s' not held by '%s'. No action taken for revocation.", role, target)
		return nil
	}

	key, err := r.createAssignmentKey(role, target)
	if err != nil {
		return fmt.Errorf("failed to create assignment key for role '%s': %w", role, err)
	}
	if err := r.Ctx.GetStub().DelState(key); err != nil {
		return fmt.Errorf("failed to delete role assignment for '%s': %w", target, err)
	}

	emitEvent(r.Ctx, "RoleRevoked", map[string]interface{}{
		"role": role, "account": target, "sender": caller,
	})
	regLogger.Infof("Role '%s' revoked from '%s' by admin '%s'.", role, target, caller)
	return nil
}

// AnyAdminExists reports whether at least one admin assignment is on the
// ledger. Used to gate bootstrap seeding.
func (r *RoleRegistry) AnyAdminExists() (bool, error) {
	iterator, err := r.Ctx.GetStub().GetStateByPartialCompositeKey(roleAssignmentObjectType, []string{string(model.RoleAdmin)})
	if err != nil {
		return false, fmt.Errorf("failed to query admin assignments: %w", err)
	}
	defer iterator.Close()
	return iterator.HasNext(), nil
}

// Bootstrap seeds the very first admin assignment without an authorization
// check. Callers must have verified that no admin exists yet.
func (r *RoleRegistry) Bootstrap(initial string) error {
	now, err := r.getCurrentTxTimestamp()
	if err != nil {
		return err
	}
	assignment := model.RoleAssignment{
		ObjectType: roleAssignmentObjectType,
		Role:       model.RoleAdmin,
		Identity:   initial,
		GrantedBy:  initial,
		GrantedAt:  now,
	}
	assignmentBytes, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("failed to marshal bootstrap admin assignment: %w", err)
	}
	key, err := r.createAssignmentKey(model.RoleAdmin, initial)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin key: %w", err)
	}
	if err := r.Ctx.GetStub().PutState(key, assignmentBytes); err != nil {
		return fmt.Errorf("failed to save bootstrap admin assignment: %w", err)
	}

	emitEvent(r.Ctx, "RoleGranted", map[string]interface{}{
		"role": model.RoleAdmin, "account": initial, "sender": initial,
	})
	regLogger.Infof("Bootstrap: identity '%s' seeded as the initial admin.", initial)
	return nil
}

// Members lists the identities currently holding role, in key order.
func (r *RoleRegistry) Members(role model.Role) ([]string, error) {
	iterator, err := r.Ctx.GetStub().GetStateByPartialCompositeKey(roleAssignmentObjectType, []string{string(role)})
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments iterator for role '%s': %w", role, err)
	}
	defer iterator.Close()

	members := []string{}
	for iterator.HasNext() {
		queryResponse, iterErr := iterator.Next()
		if iterErr != nil {
			regLogger.Warningf("Failed to get next assignment from iterator: %v. Skipping.", iterErr)
			continue
		}
		var assignment model.RoleAssignment
		if err := json.Unmarshal(queryResponse.Value, &assignment); err != nil {
			regLogger.Warningf("Failed to unmarshal assignment data for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		members = append(members, assignment.Identity)
	}
	return members, nil
}
