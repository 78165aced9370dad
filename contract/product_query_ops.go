package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

// GetProduct returns the product record for id. An unknown id yields a
// zero-valued record, not an error.
func (s *ProvenanceSmartContract) GetProduct(ctx contractapi.TransactionContextInterface, id uint64) (*model.Product, error) {
	logger.Debugf("GetProduct: Querying product %d", id)
	return s.getProductByID(ctx, id)
}

// GetQualityChecks returns a product's inspection log in recording order,
// empty if none. Entries are never removed or reordered.
func (s *ProvenanceSmartContract) GetQualityChecks(ctx contractapi.TransactionContextInterface, id uint64) ([]model.QualityCheck, error) {
	logger.Debugf("GetQualityChecks: Querying checks for product %d", id)
	return s.getChecksByID(ctx, id)
}

// GetTotalProducts returns how many products have been registered, which
// is also the highest id issued so far.
func (s *ProvenanceSmartContract) GetTotalProducts(ctx contractapi.TransactionContextInterface) (uint64, error) {
	counterKey, err := ctx.GetStub().CreateCompositeKey(counterObjectType, []string{productCounterName})
	if err != nil {
		return 0, fmt.Errorf("GetTotalProducts: failed to create counter key: %w", err)
	}
	counterBytes, err := ctx.GetStub().GetState(counterKey)
	if err != nil {
		return 0, fmt.Errorf("GetTotalProducts: failed to read product counter: %w", err)
	}
	if counterBytes == nil {
		return 0, nil
	}
	total, err := strconv.ParseUint(string(counterBytes), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("GetTotalProducts: corrupt product counter value '%s': %w", string(counterBytes), err)
	}
	return total, nil
}

// GetAllProducts returns every registered product in id order.
func (s *ProvenanceSmartContract) GetAllProducts(ctx contractapi.TransactionContextInterface) ([]*model.Product, error) {
	logger.Debug("GetAllProducts: Querying all products")
	return s.scanProducts(ctx, func(*model.Product) bool { return true })
}

// GetProductsByOwner returns the products registered by the given identity,
// in id order.
func (s *ProvenanceSmartContract) GetProductsByOwner(ctx contractapi.TransactionContextInterface, owner string) ([]*model.Product, error) {
	logger.Debugf("GetProductsByOwner: Querying products owned by '%s'", owner)
	return s.scanProducts(ctx, func(p *model.Product) bool { return p.Owner == owner })
}

// scanProducts iterates all product keys and keeps records the filter
// accepts. Unreadable entries are logged and skipped, not fatal to the
// query.
func (s *ProvenanceSmartContract) scanProducts(ctx contractapi.TransactionContextInterface, keep func(*model.Product) bool) ([]*model.Product, error) {
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(productObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to get products iterator: %w", err)
	}
	defer resultsIterator.Close()

	products := []*model.Product{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("scanProducts: Failed to get next product from iterator: %v. Skipping.", iterErr)
			continue
		}
		var product model.Product
		if err := json.Unmarshal(queryResponse.Value, &product); err != nil {
			logger.Warningf("scanProducts: Failed to unmarshal product data for key '%s': %v. Skipping.", queryResponse.Key, err)
			continue
		}
		if keep(&product) {
			products = append(products, &product)
		}
	}
	return products, nil
}
