package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"gorm.io/gorm"
)

// saleOperation posts a SaleRequest either as an ordinary sale (FROZEN and
// FINISHED lots) or as a waste sale (WASTE and REJECT_SELLABLE lots).
type saleOperation struct {
	*SaleRequest
	waste bool
}

// Sell invoices the buyer for finished goods and expenses their cost.
func (e *Engine) Sell(ctx context.Context, req *SaleRequest) (*OperationResult, error) {
	return e.run(ctx, &saleOperation{SaleRequest: req})
}

// SellWaste is Sell for sellable waste and rejects, booked to REVENUE_WASTE.
func (e *Engine) SellWaste(ctx context.Context, req *SaleRequest) (*OperationResult, error) {
	return e.run(ctx, &saleOperation{SaleRequest: req, waste: true})
}

func (s *saleOperation) operationType() models.OperationType {
	if s.waste {
		return models.OperationTypeWasteSale
	}
	return models.OperationTypeSale
}

func (s *saleOperation) payload() any {
	return s.SaleRequest
}

func (s *saleOperation) validate() error {
	lotIds := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		if !line.QuantityKg.IsPositive() || !line.PricePerKgIdr.IsPositive() {
			return models.NewInvalidArgumentError("sale of lot %s needs positive quantity and price", line.LotId)
		}
		lotIds = append(lotIds, line.LotId)
	}
	return requireUniqueLots(lotIds)
}

func (s *saleOperation) verify(tx *gorm.DB) error {
	return nil
}

func (s *saleOperation) eligible(status models.LotStatus) bool {
	if s.waste {
		return status.IsWasteSellable()
	}
	return status.IsSellable()
}

func (s *saleOperation) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	lotIds := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		lotIds = append(lotIds, line.LotId)
	}
	lots, err := models.GetLots(tx, lotIds)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	var cogsLines []models.LedgerLine
	var traces []*models.TraceLink
	for _, line := range s.Lines {
		lot := lots[line.LotId]
		if err := lot.AssertAt(s.LocationId, s.UnitId); err != nil {
			return nil, err
		}
		if !s.eligible(lot.Status) {
			return nil, models.NewFailedPreconditionError("lot %s with status %s cannot go through %s",
				lot.ID, lot.Status, s.operationType())
		}
		cogs, err := lot.Consume(line.QuantityKg)
		if err != nil {
			return nil, err
		}
		if err := models.SaveLot(tx, lot); err != nil {
			return nil, err
		}
		revenue = revenue.Add(utils.RoundMoney(line.QuantityKg.Mul(line.PricePerKgIdr)))
		cogsLines = append(cogsLines,
			models.Debit(models.AccountExpenseCogs, cogs).WithLot(lot.ID, line.QuantityKg),
			models.Credit(models.AccountInventoryFinished, cogs).WithLot(lot.ID, line.QuantityKg),
		)
		traces = append(traces, &models.TraceLink{FromLotId: lot.ID, ToLotId: s.BuyerId, Type: models.TraceLinkTypeSell})
	}

	invoice, err := models.CreateInvoice(tx, models.NewInvoice{
		Type:           models.InvoiceTypeAR,
		LocationId:     s.LocationId,
		UnitId:         s.UnitId,
		PartnerId:      s.BuyerId,
		TotalAmountIdr: revenue,
		SourceEntryId:  p.key,
	})
	if err != nil {
		return nil, err
	}

	revenueAccount := models.AccountRevenueSales
	if s.waste {
		revenueAccount = models.AccountRevenueWaste
	}
	lines := []models.LedgerLine{
		models.Debit(models.AccountInvoiceAR, revenue).WithPartner(s.BuyerId),
		models.Credit(revenueAccount, revenue).WithPartner(s.BuyerId),
	}
	lines = append(lines, cogsLines...)
	links := models.EntryLinks{
		InputLotIds: lotIds,
		InvoiceId:   &invoice.ID,
	}
	return p.appendEntry(tx, lines, links, traces)
}
