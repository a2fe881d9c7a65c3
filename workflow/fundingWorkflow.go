package workflow

import (
	"context"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// Fund records capital paid into a unit's cash or bank account.
func (e *Engine) Fund(ctx context.Context, req *FundingRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *FundingRequest) operationType() models.OperationType {
	return models.OperationTypeFunding
}

func (r *FundingRequest) payload() any {
	return r
}

func (r *FundingRequest) validate() error {
	r.EquityAccount = defaultAccount(r.EquityAccount, models.AccountEquityCapital)
	if !r.SourceAccount.IsCashAccount() {
		return models.NewInvalidArgumentError("%s is not a cash or bank account", r.SourceAccount)
	}
	if !r.EquityAccount.IsEquityAccount() {
		return models.NewInvalidArgumentError("%s is not an equity account", r.EquityAccount)
	}
	if !r.AmountIdr.IsPositive() {
		return models.NewInvalidArgumentError("funding amount must be positive")
	}
	return nil
}

func (r *FundingRequest) verify(tx *gorm.DB) error {
	return nil
}

func (r *FundingRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	lines := []models.LedgerLine{
		models.Debit(r.SourceAccount, r.AmountIdr),
		models.Credit(r.EquityAccount, r.AmountIdr),
	}
	return p.appendEntry(tx, lines, models.EntryLinks{}, nil)
}
