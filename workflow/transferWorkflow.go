package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// Transfer moves kg of a lot to another location/unit. The moved share keeps
// its cost per kg in a new lot; the ledger records the move at zero value.
func (e *Engine) Transfer(ctx context.Context, req *TransferRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *TransferRequest) operationType() models.OperationType {
	return models.OperationTypeTransfer
}

func (r *TransferRequest) payload() any {
	return r
}

func (r *TransferRequest) validate() error {
	if !r.QuantityKg.IsPositive() {
		return models.NewInvalidArgumentError("transfer quantity must be positive")
	}
	if r.ToLocationId == r.LocationId && r.ToUnitId == r.UnitId {
		return models.NewInvalidArgumentError("transfer destination equals source %s/%s", r.LocationId, r.UnitId)
	}
	return nil
}

func (r *TransferRequest) verify(tx *gorm.DB) error {
	return models.VerifyLocationUnit(tx, r.ToLocationId, r.ToUnitId)
}

func (r *TransferRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	source, err := models.GetLot(tx, r.SourceLotId)
	if err != nil {
		return nil, err
	}
	if err := source.AssertAt(r.LocationId, r.UnitId); err != nil {
		return nil, err
	}
	costPerKg := source.CostPerKgIdr
	movedCost, err := source.Consume(r.QuantityKg)
	if err != nil {
		return nil, err
	}
	if err := models.SaveLot(tx, source); err != nil {
		return nil, err
	}

	dest, err := models.CreateLot(tx, models.NewLot{
		LocationId:   r.ToLocationId,
		UnitId:       r.ToUnitId,
		ItemId:       source.ItemId,
		Grade:        source.Grade,
		Status:       source.Status,
		QuantityKg:   r.QuantityKg,
		CostTotalIdr: movedCost,
		CostPerKgIdr: costPerKg,
		Origin: models.LotOrigin{
			SourceType:  models.OriginSourceTransfer,
			SourceRefId: p.key,
			BoatId:      source.Origin.BoatId,
		},
	})
	if err != nil {
		return nil, err
	}

	lines := []models.LedgerLine{
		models.Debit(models.AccountInventoryTransit, decimal.Zero).
			WithLot(dest.ID, r.QuantityKg).
			WithBeneficiaryUnit(r.ToUnitId),
		models.Credit(models.AccountInventoryTransit, decimal.Zero).
			WithLot(source.ID, r.QuantityKg),
	}
	links := models.EntryLinks{
		InputLotIds:  []string{source.ID},
		OutputLotIds: []string{dest.ID},
	}
	traces := []*models.TraceLink{
		{FromLotId: source.ID, ToLotId: dest.ID, Type: models.TraceLinkTypeTransfer},
	}
	return p.appendEntry(tx, lines, links, traces)
}
