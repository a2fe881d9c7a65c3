package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// Produce consumes input lots and creates one lot per stocked output. Input
// cost is spread over the outputs by weight after the shrinkage share is
// expensed.
func (e *Engine) Produce(ctx context.Context, req *ProduceRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *ProduceRequest) operationType() models.OperationType {
	return models.OperationTypeProduction
}

func (r *ProduceRequest) payload() any {
	return r
}

func (r *ProduceRequest) validate() error {
	lotIds := make([]string, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		if !in.QuantityKg.IsPositive() {
			return models.NewInvalidArgumentError("input %s quantity must be positive", in.LotId)
		}
		lotIds = append(lotIds, in.LotId)
	}
	if err := requireUniqueLots(lotIds); err != nil {
		return err
	}
	for i, out := range r.Outputs {
		if !out.Status.IsValid() {
			return models.NewInvalidArgumentError("output %d has unknown status %s", i, out.Status)
		}
		if out.Status == models.LotStatusRaw {
			return models.NewInvalidArgumentError("output %d cannot be RAW", i)
		}
		if !out.QuantityKg.IsPositive() {
			return models.NewInvalidArgumentError("output %d quantity must be positive", i)
		}
	}
	return nil
}

func (r *ProduceRequest) verify(tx *gorm.DB) error {
	return nil
}

func (r *ProduceRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	lotIds := make([]string, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		lotIds = append(lotIds, in.LotId)
	}
	lots, err := models.GetLots(tx, lotIds)
	if err != nil {
		return nil, err
	}

	var lines []models.LedgerLine
	consumed := make([]models.ConsumedInput, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		lot := lots[in.LotId]
		if err := lot.AssertAt(r.LocationId, r.UnitId); err != nil {
			return nil, err
		}
		cost, err := lot.Consume(in.QuantityKg)
		if err != nil {
			return nil, err
		}
		if err := models.SaveLot(tx, lot); err != nil {
			return nil, err
		}
		consumed = append(consumed, models.ConsumedInput{LotId: lot.ID, QuantityKg: in.QuantityKg, CostIdr: cost})
		lines = append(lines, models.Credit(lot.Status.InventoryAccount(), cost).WithLot(lot.ID, in.QuantityKg))
	}

	outputKgs := make([]decimal.Decimal, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		outputKgs = append(outputKgs, out.QuantityKg)
	}
	alloc, err := models.AllocateProductionCost(consumed, outputKgs)
	if err != nil {
		return nil, err
	}

	outputLotIds := make([]string, 0, len(r.Outputs))
	for i, out := range r.Outputs {
		lot, err := models.CreateLot(tx, models.NewLot{
			LocationId:   r.LocationId,
			UnitId:       r.UnitId,
			ItemId:       out.ItemId,
			Grade:        out.Grade,
			Status:       out.Status,
			QuantityKg:   out.QuantityKg,
			CostTotalIdr: alloc.OutputCosts[i],
			Origin: models.LotOrigin{
				SourceType:  models.OriginSourceTransform,
				SourceRefId: p.key,
			},
		})
		if err != nil {
			return nil, err
		}
		outputLotIds = append(outputLotIds, lot.ID)
		lines = append(lines, models.Debit(out.Status.InventoryAccount(), alloc.OutputCosts[i]).WithLot(lot.ID, out.QuantityKg))
	}
	if alloc.ShrinkageKg.IsPositive() {
		shrink := models.Debit(models.AccountExpenseShrinkage, alloc.ShrinkageCost)
		shrink.QuantityKg = decimal.NewNullDecimal(alloc.ShrinkageKg)
		lines = append(lines, shrink)
	}

	var traces []*models.TraceLink
	for _, in := range r.Inputs {
		for _, outId := range outputLotIds {
			traces = append(traces, &models.TraceLink{FromLotId: in.LotId, ToLotId: outId, Type: models.TraceLinkTypeTransform})
		}
	}
	links := models.EntryLinks{
		InputLotIds:  lotIds,
		OutputLotIds: outputLotIds,
	}
	return p.appendEntry(tx, lines, links, traces)
}
