package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// PayFisher pays a fisher against the unit's open AP invoices, oldest first.
func (e *Engine) PayFisher(ctx context.Context, req *FisherPaymentRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *FisherPaymentRequest) operationType() models.OperationType {
	return models.OperationTypeFisherPayment
}

func (r *FisherPaymentRequest) payload() any {
	return r
}

func (r *FisherPaymentRequest) validate() error {
	r.BankAccount = defaultAccount(r.BankAccount, models.AccountBank)
	if !r.BankAccount.IsCashAccount() {
		return models.NewInvalidArgumentError("%s is not a cash or bank account", r.BankAccount)
	}
	if !r.AmountIdr.IsPositive() {
		return models.NewInvalidArgumentError("payment amount must be positive")
	}
	return nil
}

func (r *FisherPaymentRequest) verify(tx *gorm.DB) error {
	return nil
}

func (r *FisherPaymentRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	payables, err := models.ListOpenPayables(tx, r.FisherId, r.UnitId)
	if err != nil {
		return nil, err
	}
	outstanding := decimal.Zero
	for _, invoice := range payables {
		outstanding = outstanding.Add(invoice.Outstanding())
	}
	if r.AmountIdr.GreaterThan(outstanding) {
		return nil, models.NewFailedPreconditionError("payment %s exceeds %s owed to fisher %s",
			r.AmountIdr.String(), outstanding.String(), r.FisherId)
	}

	remaining := r.AmountIdr
	settled := make([]string, 0, len(payables))
	for _, invoice := range payables {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, invoice.Outstanding())
		if !take.IsPositive() {
			continue
		}
		if err := invoice.ApplySettlement(take); err != nil {
			return nil, err
		}
		if err := models.SaveInvoiceSettlement(tx, invoice); err != nil {
			return nil, err
		}
		settled = append(settled, invoice.ID)
		remaining = remaining.Sub(take)
	}

	lines := []models.LedgerLine{
		models.Debit(models.AccountFisherLiability, r.AmountIdr).WithPartner(r.FisherId),
		models.Credit(r.BankAccount, r.AmountIdr),
	}
	links := models.EntryLinks{SettledInvoiceIds: settled}
	return p.appendEntry(tx, lines, links, nil)
}
