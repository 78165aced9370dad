package contract

import (
	"fmt"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Manufacturer Operations ---

// RegisterProduct creates a new product record owned by the calling
// manufacturer and returns its id. Ids are strictly increasing from 1.
// Field content is not validated; the ledger accepts what the
// manufacturer supplies.
func (s *ProvenanceSmartContract) RegisterProduct(ctx contractapi.TransactionContextInterface,
	name string, originLocation string, batchNumber string, expirationDateStr string) (uint64, error) {

	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return 0, fmt.Errorf("RegisterProduct: failed to get caller identity: %w", err)
	}
	if err := s.guardFor(ctx).RequireAnyOf(caller, model.RoleManufacturer); err != nil {
		return 0, err
	}

	expirationDate, err := parseDateString(expirationDateStr, "expirationDate")
	if err != nil {
		return 0, err
	}
	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("RegisterProduct: failed to get transaction timestamp: %w", err)
	}

	id, err := s.nextProductID(ctx)
	if err != nil {
		return 0, fmt.Errorf("RegisterProduct: %w", err)
	}

	product := model.Product{
		ObjectType:     productObjectType,
		ID:             id,
		Name:           name,
		OriginLocation: originLocation,
		BatchNumber:    batchNumber,
		Owner:          caller,
		CreatedAt:      now,
		ExpirationDate: expirationDate,
		Completed:      false,
	}
	if err := s.putProduct(ctx, &product); err != nil {
		return 0, fmt.Errorf("RegisterProduct: %w", err)
	}

	emitEvent(ctx, "ProductRegistered", map[string]interface{}{
		"id": id, "name": name, "owner": caller,
	})
	logger.Infof("Product %d ('%s') registered by manufacturer '%s'", id, name, caller)
	return id, nil
}

// UpdateProductInfo overwrites a product's four mutable fields. The caller
// must hold the manufacturer role AND be the product's registering owner;
// both checks are distinct and both must pass. Completed products are
// frozen.
func (s *ProvenanceSmartContract) UpdateProductInfo(ctx contractapi.TransactionContextInterface,
	id uint64, newName string, newOriginLocation string, newBatchNumber string, newExpirationDateStr string) error {

	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("UpdateProductInfo: failed to get caller identity: %w", err)
	}
	guard := s.guardFor(ctx)
	if err := guard.RequireAnyOf(caller, model.RoleManufacturer); err != nil {
		return err
	}

	product, err := s.getProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("UpdateProductInfo: %w", err)
	}
	if err := guard.RequireOwner(caller, product.Owner); err != nil {
		return err
	}
	if product.Completed {
		return fmt.Errorf("%w: product %d cannot be updated", ErrAlreadyCompleted, id)
	}

	newExpirationDate, err := parseDateString(newExpirationDateStr, "newExpirationDate")
	if err != nil {
		return err
	}

	// ID, Owner and CreatedAt stay untouched.
	product.Name = newName
	product.OriginLocation = newOriginLocation
	product.BatchNumber = newBatchNumber
	product.ExpirationDate = newExpirationDate
	if err := s.putProduct(ctx, product); err != nil {
		return fmt.Errorf("UpdateProductInfo: %w", err)
	}

	emitEvent(ctx, "ProductUpdated", map[string]interface{}{"id": id})
	logger.Infof("Product %d updated by owner '%s'", id, caller)
	return nil
}
