package workflow

import (
	"context"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// SettleInvoice records a customer payment against one AR invoice.
func (e *Engine) SettleInvoice(ctx context.Context, req *SettlementRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *SettlementRequest) operationType() models.OperationType {
	return models.OperationTypeSettlement
}

func (r *SettlementRequest) payload() any {
	return r
}

func (r *SettlementRequest) validate() error {
	r.BankAccount = defaultAccount(r.BankAccount, models.AccountBank)
	if !r.BankAccount.IsCashAccount() {
		return models.NewInvalidArgumentError("%s is not a cash or bank account", r.BankAccount)
	}
	if !r.AmountIdr.IsPositive() {
		return models.NewInvalidArgumentError("settlement amount must be positive")
	}
	return nil
}

func (r *SettlementRequest) verify(tx *gorm.DB) error {
	return nil
}

func (r *SettlementRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	invoice, err := models.GetInvoice(tx, r.InvoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Type != models.InvoiceTypeAR {
		return nil, models.NewInvalidArgumentError("invoice %s is %s; only AR invoices are settled here", invoice.ID, invoice.Type)
	}
	if invoice.LocationId != r.LocationId || invoice.UnitId != r.UnitId {
		return nil, models.NewFailedPreconditionError("invoice %s belongs to %s/%s", invoice.ID, invoice.LocationId, invoice.UnitId)
	}
	if err := invoice.ApplySettlement(r.AmountIdr); err != nil {
		return nil, err
	}
	if err := models.SaveInvoiceSettlement(tx, invoice); err != nil {
		return nil, err
	}

	lines := []models.LedgerLine{
		models.Debit(r.BankAccount, r.AmountIdr),
		models.Credit(models.AccountInvoiceAR, r.AmountIdr).WithPartner(invoice.PartnerId),
	}
	links := models.EntryLinks{
		InvoiceId:         &invoice.ID,
		SettledInvoiceIds: []string{invoice.ID},
	}
	return p.appendEntry(tx, lines, links, nil)
}
