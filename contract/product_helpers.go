package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// productCounterName keys the monotonic id counter under counterObjectType.
const productCounterName = "productId"

// --- Core Helper Methods (used across multiple operations) ---

// currentCallerID retrieves the opaque identity of the transaction invoker.
func (s *ProvenanceSmartContract) currentCallerID(ctx contractapi.TransactionContextInterface) (string, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	return id, nil
}

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func (s *ProvenanceSmartContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// formatProductID renders an id as a fixed-width decimal so composite keys
// sort numerically under range scans.
func formatProductID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func (s *ProvenanceSmartContract) createProductKey(ctx contractapi.TransactionContextInterface, id uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(productObjectType, []string{formatProductID(id)})
}

func (s *ProvenanceSmartContract) createChecksKey(ctx contractapi.TransactionContextInterface, id uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(qualityCheckObjectType, []string{formatProductID(id)})
}

// nextProductID allocates the next id from the strictly increasing counter.
// Ids start at 1; 0 is the "not found" sentinel and is never issued. The
// transaction's total ordering is the counter's serialization point.
func (s *ProvenanceSmartContract) nextProductID(ctx contractapi.TransactionContextInterface) (uint64, error) {
	counterKey, err := ctx.GetStub().CreateCompositeKey(counterObjectType, []string{productCounterName})
	if err != nil {
		return 0, fmt.Errorf("failed to create counter key: %w", err)
	}
	counterBytes, err := ctx.GetStub().GetState(counterKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read product counter: %w", err)
	}
	var last uint64
	if counterBytes != nil {
		last, err = strconv.ParseUint(string(counterBytes), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt product counter value '%s': %w", string(counterBytes), err)
		}
	}
	next := last + 1
	if err := ctx.GetStub().PutState(counterKey, []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, fmt.Errorf("failed to save product counter: %w", err)
	}
	return next, nil
}

// getProductByID loads a product record. An unknown id yields a zero-valued
// record rather than an error; callers that need existence must check the
// ID field themselves.
func (s *ProvenanceSmartContract) getProductByID(ctx contractapi.TransactionContextInterface, id uint64) (*model.Product, error) {
	productKey, err := s.createProductKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for product %d: %w", id, err)
	}
	productBytes, err := ctx.GetStub().GetState(productKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read product %d from ledger: %w", id, err)
	}
	if productBytes == nil {
		return &model.Product{}, nil
	}
	var product model.Product
	if err := json.Unmarshal(productBytes, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product %d data: %w", id, err)
	}
	return &product, nil
}

// putProduct marshals and saves a product record.
func (s *ProvenanceSmartContract) putProduct(ctx contractapi.TransactionContextInterface, product *model.Product) error {
	productKey, err := s.createProductKey(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to create key for product %d: %w", product.ID, err)
	}
	productBytes, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %d: %w", product.ID, err)
	}
	if err := ctx.GetStub().PutState(productKey, productBytes); err != nil {
		return fmt.Errorf("failed to save product %d to ledger: %w", product.ID, err)
	}
	return nil
}

// getChecksByID loads a product's check sequence, empty (non-nil) when
// none have been recorded.
func (s *ProvenanceSmartContract) getChecksByID(ctx contractapi.TransactionContextInterface, id uint64) ([]model.QualityCheck, error) {
	checksKey, err := s.createChecksKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create checks key for product %d: %w", id, err)
	}
	checksBytes, err := ctx.GetStub().GetState(checksKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read checks for product %d: %w", id, err)
	}
	checks := []model.QualityCheck{}
	if checksBytes == nil {
		return checks, nil
	}
	if err := json.Unmarshal(checksBytes, &checks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checks for product %d: %w", id, err)
	}
	return checks, nil
}

// putChecks saves a product's full check sequence.
func (s *ProvenanceSmartContract) putChecks(ctx contractapi.TransactionContextInterface, id uint64, checks []model.QualityCheck) error {
	checksKey, err := s.createChecksKey(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to create checks key for product %d: %w", id, err)
	}
	checksBytes, err := json.Marshal(checks)
	if err != nil {
		return fmt.Errorf("failed to marshal checks for product %d: %w", id, err)
	}
	if err := ctx.GetStub().PutState(checksKey, checksBytes); err != nil {
		return fmt.Errorf("failed to save checks for product %d: %w", id, err)
	}
	return nil
}

// parseDateString parses an RFC3339 date argument. Empty is allowed and
// yields the zero time; the ledger enforces no ordering between
// caller-supplied dates and its own timestamps.
func parseDateString(str, field string) (time.Time, error) {
	sTrimmed := strings.TrimSpace(str)
	if sTrimmed == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, sTrimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid format for %s (expected RFC3339 'YYYY-MM-DDTHH:MM:SSZ'): %w", field, err)
	}
	return t, nil
}

// emitEvent sends a chaincode event with a JSON payload. Emission failures
// are logged, not surfaced: the mutation has already committed its writes.
func emitEvent(ctx contractapi.TransactionContextInterface, eventName string, payload map[string]interface{}) {
	for k, v := range payload {
		if t, ok := v.(time.Time); ok {
			payload[k] = t.Format(time.RFC3339)
		}
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitEvent: Failed to marshal payload for event '%s': %v", eventName, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitEvent: Failed to set event '%s': %v", eventName, errSet)
	}
}
