package workflow

import (
	"fmt"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// IdempotencyKey is the ledger entry id an operation posts under,
// e.g. "sale-{unitId}-{operationId}".
func IdempotencyKey(opType models.OperationType, unitId string, operationId string) string {
	return fmt.Sprintf("%s-%s-%s", opType.KeyPrefix(), unitId, operationId)
}

// findPriorResult looks the key up by primary key inside the posting
// transaction. It returns (nil, nil) when the operation has not been posted.
func findPriorResult(tx *gorm.DB, key string, opType models.OperationType) (*OperationResult, error) {
	entry, err := models.FindLedgerEntry(tx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if entry.OperationType != opType {
		return nil, models.NewInvalidArgumentError("key %s was posted as %s, not %s", key, entry.OperationType, opType)
	}
	return resultFromEntry(tx, entry)
}

// resultFromEntry rebuilds the caller-facing ids from what was stored, so the
// first call and every replay see the same tuple.
func resultFromEntry(tx *gorm.DB, entry *models.LedgerEntry) (*OperationResult, error) {
	links, err := models.ListTraceLinksByEvent(tx, entry.ID)
	if err != nil {
		return nil, err
	}
	result := OperationResult{
		LedgerEntryId:     entry.ID,
		OperationType:     entry.OperationType,
		InputLotIds:       append([]string{}, entry.Links.InputLotIds...),
		OutputLotIds:      append([]string{}, entry.Links.OutputLotIds...),
		SettledInvoiceIds: append([]string{}, entry.Links.SettledInvoiceIds...),
		TraceLinkIds:      make([]string, 0, len(links)),
	}
	if len(result.OutputLotIds) == 1 {
		result.LotId = result.OutputLotIds[0]
	}
	if entry.Links.InvoiceId != nil {
		result.InvoiceId = *entry.Links.InvoiceId
	}
	for _, link := range links {
		result.TraceLinkIds = append(result.TraceLinkIds, link.ID)
	}
	return &result, nil
}
