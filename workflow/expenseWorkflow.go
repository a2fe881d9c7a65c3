package workflow

import (
	"context"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// Expense pays an operating cost out of a cash or bank account, optionally
// charged to another unit.
func (e *Engine) Expense(ctx context.Context, req *ExpenseRequest) (*OperationResult, error) {
	return e.run(ctx, req)
}

func (r *ExpenseRequest) operationType() models.OperationType {
	return models.OperationTypeExpense
}

func (r *ExpenseRequest) payload() any {
	return r
}

func (r *ExpenseRequest) validate() error {
	if !r.ExpenseAccount.IsExpenseAccount() {
		return models.NewInvalidArgumentError("%s is not an expense account", r.ExpenseAccount)
	}
	if !r.PaymentAccount.IsCashAccount() {
		return models.NewInvalidArgumentError("%s is not a cash or bank account", r.PaymentAccount)
	}
	if !r.AmountIdr.IsPositive() {
		return models.NewInvalidArgumentError("expense amount must be positive")
	}
	return nil
}

func (r *ExpenseRequest) verify(tx *gorm.DB) error {
	if r.BeneficiaryUnitId == nil {
		return nil
	}
	_, err := models.GetUnit(tx, *r.BeneficiaryUnitId)
	return err
}

func (r *ExpenseRequest) post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error) {
	debit := models.Debit(r.ExpenseAccount, r.AmountIdr)
	if r.BeneficiaryUnitId != nil {
		debit = debit.WithBeneficiaryUnit(*r.BeneficiaryUnitId)
	}
	lines := []models.LedgerLine{
		debit,
		models.Credit(r.PaymentAccount, r.AmountIdr),
	}
	return p.appendEntry(tx, lines, models.EntryLinks{}, nil)
}
