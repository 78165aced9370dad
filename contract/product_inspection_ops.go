package contract

import (
	"fmt"

	"prodtrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Inspection Operations ---

// PerformQualityCheck appends an inspection entry to a product's check
// sequence. Any manufacturer, distributor or retailer may inspect; the
// sequence is append-only and closes for good once the product's journey
// is completed.
//
// The id is deliberately not checked for existence: checks recorded
// against an unissued id accumulate and attach to it if it is registered
// later. Flagged for product-owner review rather than silently tightened.
func (s *ProvenanceSmartContract) PerformQualityCheck(ctx contractapi.TransactionContextInterface,
	id uint64, checkpointName string, passed bool, notes string) error {

	caller, err := s.currentCallerID(ctx)
	if err != nil {
		return fmt.Errorf("PerformQualityCheck: failed to get caller identity: %w", err)
	}
	if err := s.guardFor(ctx).RequireAnyOf(caller, inspectionRoles...); err != nil {
		return err
	}

	product, err := s.getProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("PerformQualityCheck: %w", err)
	}
	if product.Completed {
		return fmt.Errorf("%w: no further checks accepted for product %d", ErrAlreadyCompleted, id)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("PerformQualityCheck: failed to get transaction timestamp: %w", err)
	}

	checks, err := s.getChecksByID(ctx, id)
	if err != nil {
		return fmt.Errorf("PerformQualityCheck: %w", err)
	}
	checks = append(checks, model.QualityCheck{
		Inspector:      caller,
		Timestamp:      now,
		CheckpointName: checkpointName,
		Passed:         passed,
		Notes:          notes,
	})
	if err := s.putChecks(ctx, id, checks); err != nil {
		return fmt.Errorf("PerformQualityCheck: %w", err)
	}

	emitEvent(ctx, "QualityCheckPerformed", map[string]interface{}{
		"id": id, "checkpointName": checkpointName, "passed": passed,
	})
	logger.Infof("Quality check '%s' (passed=%t) recorded for product %d by '%s'", checkpointName, passed, id, caller)
	return nil
}
