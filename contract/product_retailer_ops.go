package contract

import (
	"fmt"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Retailer Operations ---

// CompleteProductJourney marks a product's journey as completed. Retailer
// only. The transition is one-way: there is no uncomplete, and a completed
// product rejects every further mutation.
func (s *ProvenanceSmartContract) CompleteProductJourney(ctx contractapi.TransactionContextInterface, id uint64) error {
	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("CompleteProductJourney: failed to get caller identity: %w", err)
	}
	if err := s.guardFor(ctx).RequireAnyOf(caller, model.RoleRetailer); err != nil {
		return err
	}

	product, err := s.getProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("CompleteProductJourney: %w", err)
	}
	if product.Completed {
		return fmt.Errorf("%w: product %d", ErrAlreadyCompleted, id)
	}

	// An unregistered id completes its implicit zero-valued record, the
	// same permissive behavior the check log has.
	product.ObjectType = productObjectType
	product.ID = id
	product.Completed = true
	if err := s.putProduct(ctx, product); err != nil {
		return fmt.Errorf("CompleteProductJourney: %w", err)
	}

	emitEvent(ctx, "ProductCompleted", map[string]interface{}{"id": id})
	logger.Infof("Product %d journey completed by retailer '%s'", id, caller)
	return nil
}
