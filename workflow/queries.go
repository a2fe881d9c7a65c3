package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
)

func (e *Engine) GetLedgerEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	return models.GetLedgerEntry(e.db.WithContext(ctx), id)
}

func (e *Engine) GetLot(ctx context.Context, id string) (*models.InventoryLot, error) {
	return models.GetLot(e.db.WithContext(ctx), id)
}

func (e *Engine) ListLots(ctx context.Context, filter models.LotFilter) ([]*models.InventoryLot, error) {
	return models.ListLots(e.db.WithContext(ctx), filter)
}

func (e *Engine) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return models.GetInvoice(e.db.WithContext(ctx), id)
}

// TraceLot returns the genealogy edges upstream to the catch and downstream to the buyers.
func (e *Engine) TraceLot(ctx context.Context, lotId string) (*models.LotGenealogy, error) {
	return models.TraceLot(e.db.WithContext(ctx), lotId)
}

func (e *Engine) AccountBalance(ctx context.Context, account models.Account, filter models.BalanceFilter) (decimal.Decimal, error) {
	if account == "" {
		return decimal.Zero, models.NewInvalidArgumentError("account is required")
	}
	return models.AccountBalance(e.db.WithContext(ctx), account, filter)
}
