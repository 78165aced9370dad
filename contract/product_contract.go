package contract

import (
	"fmt"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("prodtrace.ledger")

// Composite-key object types, also usable as 'docType' in CouchDB.
const (
	productObjectType      = "Product"      // Product records. Attribute: decimal-padded ID.
	qualityCheckObjectType = "QualityCheck" // Per-product check sequences. Attribute: decimal-padded ID.
	counterObjectType      = "Counter"      // Monotonic counters. Attribute: counter name.
)

// ProvenanceSmartContract tracks products through a multi-party supply
// chain: registration by a manufacturer, append-only quality checks by
// authorized parties, and a one-way completion by a retailer. Every
// mutating operation is gated through the role registry and access guard.
// @contract:ProvenanceSmartContract
type ProvenanceSmartContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
func (s *ProvenanceSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("ProvenanceSmartContract Instantiated/Upgraded")
}

// InitLedger seeds the invoking identity as the one initial admin. It can
// run only once: any later call finds an admin on the ledger and fails.
func (s *ProvenanceSmartContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("InitLedger: failed to get caller identity: %w", err)
	}
	reg := NewRoleRegistry(ctx)

	anyAdminExists, err := reg.AnyAdminExists()
	if err != nil {
		return fmt.Errorf("InitLedger: failed to check for existing admins: %w", err)
	}
	if anyAdminExists {
		return fmt.Errorf("InitLedger: ledger already initialized, an admin exists")
	}
	return reg.Bootstrap(caller)
}

// --- Role Management (delegating to RoleRegistry) ---

// GrantRole assigns a role to an identity. Admin only; idempotent.
func (s *ProvenanceSmartContract) GrantRole(ctx contractapi.TransactionContextInterface, role string, target string) error {
	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("GrantRole: failed to get caller identity: %w", err)
	}
	parsedRole, err := ParseRole(role)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: GrantRole '%s' to '%s' by '%s'", parsedRole, target, caller)
	return NewRoleRegistry(ctx).Grant(caller, parsedRole, target)
}

// RevokeRole removes a role from an identity. Admin only; idempotent.
func (s *ProvenanceSmartContract) RevokeRole(ctx contractapi.TransactionContextInterface, role string, target string) error {
	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("RevokeRole: failed to get caller identity: %w", err)
	}
	parsedRole, err := ParseRole(role)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: RevokeRole '%s' from '%s' by '%s'", parsedRole, target, caller)
	return NewRoleRegistry(ctx).Revoke(caller, parsedRole, target)
}

// HasRole reports whether an identity holds a role. Public read.
func (s *ProvenanceSmartContract) HasRole(ctx contractapi.TransactionContextInterface, identity string, role string) (bool, error) {
	parsedRole, err := ParseRole(role)
	if err != nil {
		return false, err
	}
	return NewRoleRegistry(ctx).Has(identity, parsedRole)
}

// GetRoleMembers lists the identities holding a role. Public read.
func (s *ProvenanceSmartContract) GetRoleMembers(ctx contractapi.TransactionContextInterface, role string) ([]string, error) {
	logger.Debugf("Chaincode Call: GetRoleMembers for role '%s'", role)
	parsedRole, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	return NewRoleRegistry(ctx).Members(parsedRole)
}

// guardFor builds the access guard consulted by mutating product ops.
func (s *ProvenanceSmartContract) guardFor(ctx contractapi.TransactionContextInterface) *AccessGuard {
	return NewAccessGuard(NewRoleRegistry(ctx))
}

// inspectionRoles are the roles permitted to append quality checks.
var inspectionRoles = []model.Role{model.RoleManufacturer, model.RoleDistributor, model.RoleRetailer}
