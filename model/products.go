package model

import "time"

// Role identifies a supply-chain participant's capability class.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManufacturer Role = "manufacturer"
	RoleDistributor  Role = "distributor"
	RoleRetailer     Role = "retailer"
)

// ValidRoles defines the set of permissible roles in the system.
// Admin is a grantable role like any other and is self-administering:
// only admins may grant or revoke roles, including admin itself.
var ValidRoles = map[Role]bool{
	RoleAdmin:        true,
	RoleManufacturer: true,
	RoleDistributor:  true,
	RoleRetailer:     true,
}

// RoleAssignment records that an identity holds a role. Assignments are
// stored one per (role, identity) pair; absence means not granted.
type RoleAssignment struct {
	ObjectType string    `json:"objectType"` // "RoleAssignment"
	Role       Role      `json:"role"`
	Identity   string    `json:"identity"`
	GrantedBy  string    `json:"grantedBy"`
	GrantedAt  time.Time `json:"grantedAt"`
}

// Product is the central record tracked through the supply chain.
// ID, Owner and CreatedAt are immutable after registration; the four
// descriptive fields stay mutable (by the owner only) until Completed
// flips to true, after which the record is permanently frozen.
type Product struct {
	ObjectType     string    `json:"objectType"` // "Product"
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	OriginLocation string    `json:"originLocation"`
	BatchNumber    string    `json:"batchNumber"`
	Owner          string    `json:"owner"` // registering manufacturer's identity
	CreatedAt      time.Time `json:"createdAt"`
	ExpirationDate time.Time `json:"expirationDate"`
	Completed      bool      `json:"completed"`
}

// QualityCheck is one entry in a product's append-only inspection log.
type QualityCheck struct {
	Inspector      string    `json:"inspector"`
	Timestamp      time.Time `json:"timestamp"`
	CheckpointName string    `json:"checkpointName"`
	Passed         bool      `json:"passed"`
	Notes          string    `json:"notes"`
}
