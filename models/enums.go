package models

import "strings"

type OperationType string

const (
	OperationTypeReceive       OperationType = "RECEIVE"
	OperationTypeProduction    OperationType = "PRODUCTION"
	OperationTypeTransfer      OperationType = "TRANSFER"
	OperationTypeSale          OperationType = "SALE"
	OperationTypeWasteSale     OperationType = "WASTE_SALE"
	OperationTypeSettlement    OperationType = "SETTLEMENT"
	OperationTypeFisherPayment OperationType = "FISHER_PAYMENT"
	OperationTypeFunding       OperationType = "FUNDING"
	OperationTypeExpense       OperationType = "EXPENSE"
)

// KeyPrefix is the idempotency key prefix of the operation type, e.g. "waste-sale".
func (t OperationType) KeyPrefix() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), "_", "-")
}

type LotStatus string

const (
	LotStatusRaw            LotStatus = "RAW"
	LotStatusFrozen         LotStatus = "FROZEN"
	LotStatusFinished       LotStatus = "FINISHED"
	LotStatusWaste          LotStatus = "WASTE"
	LotStatusRejectSellable LotStatus = "REJECT_SELLABLE"
	LotStatusCold           LotStatus = "COLD"
)

func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusRaw, LotStatusFrozen, LotStatusFinished, LotStatusWaste, LotStatusRejectSellable, LotStatusCold:
		return true
	}
	return false
}

// IsSellable reports whether the lot may go through an ordinary sale.
func (s LotStatus) IsSellable() bool {
	return s == LotStatusFrozen || s == LotStatusFinished
}

// IsWasteSellable reports whether the lot may go through a waste sale.
func (s LotStatus) IsWasteSellable() bool {
	return s == LotStatusWaste || s == LotStatusRejectSellable
}

// InventoryAccount is the balance sheet account carrying lots of this status.
func (s LotStatus) InventoryAccount() Account {
	if s == LotStatusRaw || s == LotStatusCold {
		return AccountInventoryRaw
	}
	return AccountInventoryFinished
}

type OriginSourceType string

const (
	OriginSourceCatch     OriginSourceType = "CATCH"
	OriginSourceTransform OriginSourceType = "TRANSFORM"
	OriginSourceTransfer  OriginSourceType = "TRANSFER"
)

type TraceLinkType string

const (
	TraceLinkTypeCatch     TraceLinkType = "CATCH"
	TraceLinkTypeTransform TraceLinkType = "TRANSFORM"
	TraceLinkTypeTransfer  TraceLinkType = "TRANSFER"
	TraceLinkTypeSell      TraceLinkType = "SELL"
)

type InvoiceType string

const (
	InvoiceTypeAR InvoiceType = "AR"
	InvoiceTypeAP InvoiceType = "AP"
)

type InvoiceStatus string

const (
	InvoiceStatusOpen InvoiceStatus = "OPEN"
	InvoiceStatusPaid InvoiceStatus = "PAID"
	InvoiceStatusVoid InvoiceStatus = "VOID"
)

type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Account is an open identifier; the constants are the accounts the
// engine posts to itself, callers may name further cash, bank, equity
// and expense accounts following the prefixes below.
type Account string

const (
	AccountInventoryRaw      Account = "INVENTORY_RAW"
	AccountInventoryFinished Account = "INVENTORY_FINISHED"
	AccountInventoryTransit  Account = "INVENTORY_TRANSIT"
	AccountFisherLiability   Account = "FISHER_LIABILITY"
	AccountInvoiceAR         Account = "INVOICE_AR"
	AccountRevenueSales      Account = "REVENUE_SALES"
	AccountRevenueWaste      Account = "REVENUE_WASTE"
	AccountExpenseCogs       Account = "EXPENSE_COGS"
	AccountExpenseShrinkage  Account = "EXPENSE_SHRINKAGE"
	AccountCash              Account = "CASH"
	AccountBank              Account = "BANK"
	AccountEquityCapital     Account = "EQUITY_CAPITAL"
)

func (a Account) hasClass(class string) bool {
	s := string(a)
	return s == class || strings.HasPrefix(s, class+"_")
}

// IsCashAccount accepts CASH, BANK and their sub-accounts (BANK_BCA, CASH_PETTY, ...).
func (a Account) IsCashAccount() bool {
	return a.hasClass("CASH") || a.hasClass("BANK")
}

func (a Account) IsEquityAccount() bool {
	return a.hasClass("EQUITY")
}

func (a Account) IsExpenseAccount() bool {
	return a.hasClass("EXPENSE")
}
