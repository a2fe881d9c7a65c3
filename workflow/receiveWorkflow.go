package workflow

import (
	"context"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"gorm.io/gorm"
)

// Receive books a fisher's catch: a new RAW (or COLD) lot valued at
// quantity x price, the matching AP invoice and the catch trace link.
func (e *Engine) Receive(ctx context.Context, req *ReceiveRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *ReceiveRequest) operationType() models.OperationType {
	return models.OperationTypeReceive
}

func (r *ReceiveRequest) payload() any {
	return r
}

func (r *ReceiveRequest) validate() error {
	if r.Status == "" {
		r.Status = models.LotStatusRaw
	}
	if r.Status != models.LotStatusRaw && r.Status != models.LotStatusCold {
		return models.NewInvalidArgumentError("received lots must be RAW or COLD, got %s", r.Status)
	}
	if !r.QuantityKg.IsPositive() || !r.PricePerKgIdr.IsPositive() {
		return models.NewInvalidArgumentError("quantity and price must be positive")
	}
	return nil
}

func (r *ReceiveRequest) verify(tx *gorm.DB) error {
	return nil
}

func (r *ReceiveRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	cost := utils.RoundMoney(r.QuantityKg.Mul(r.PricePerKgIdr))

	lot, err := models.CreateLot(tx, models.NewLot{
		LocationId:   r.LocationId,
		UnitId:       r.UnitId,
		ItemId:       r.ItemId,
		Grade:        r.Grade,
		Status:       r.Status,
		QuantityKg:   r.QuantityKg,
		CostTotalIdr: cost,
		CostPerKgIdr: r.PricePerKgIdr,
		Origin: models.LotOrigin{
			SourceType:  models.OriginSourceCatch,
			SourceRefId: p.key,
			BoatId:      r.BoatId,
		},
	})
	if err != nil {
		return nil, err
	}

	invoice, err := models.CreateInvoice(tx, models.NewInvoice{
		Type:           models.InvoiceTypeAP,
		LocationId:     r.LocationId,
		UnitId:         r.UnitId,
		PartnerId:      r.FisherId,
		TotalAmountIdr: cost,
		SourceEntryId:  p.key,
	})
	if err != nil {
		return nil, err
	}

	lines := []models.LedgerLine{
		models.Debit(r.Status.InventoryAccount(), cost).WithLot(lot.ID, r.QuantityKg),
		models.Credit(models.AccountFisherLiability, cost).WithPartner(r.FisherId),
	}
	links := models.EntryLinks{
		OutputLotIds: []string{lot.ID},
		InvoiceId:    &invoice.ID,
	}
	traces := []*models.TraceLink{
		{ToLotId: lot.ID, Type: models.TraceLinkTypeCatch},
	}
	return p.appendEntry(tx, lines, links, traces)
}
