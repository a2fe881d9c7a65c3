package workflow

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
)

// RequestHeader is shared by every operation. OperationId is supplied by the
// caller and makes the operation idempotent within its unit.
type RequestHeader struct {
	OperationId   string               `json:"operation_id" validate:"required,max=100"`
	Type          models.OperationType `json:"type"`
	LocationId    string               `json:"location_id" validate:"required,max=64"`
	UnitId        string               `json:"unit_id" validate:"required,max=64"`
	ActorUserId   string               `json:"actor_user_id" validate:"max=128"`
	Timestamp     time.Time            `json:"timestamp" validate:"required"`
	Notes         string               `json:"notes" validate:"max=2000"`
	AttachmentIds []string             `json:"attachment_ids" validate:"omitempty,dive,required,max=191"`
}

func (h *RequestHeader) Header() *RequestHeader {
	return h
}

type ReceiveRequest struct {
	RequestHeader
	FisherId      string           `json:"fisher_id" validate:"required,max=64"`
	BoatId        *string          `json:"boat_id" validate:"omitempty,max=64"`
	ItemId        string           `json:"item_id" validate:"required,max=64"`
	Grade         string           `json:"grade" validate:"max=64"`
	Status        models.LotStatus `json:"status"`
	QuantityKg    decimal.Decimal  `json:"quantity_kg" validate:"gt=0,scale=4"`
	PricePerKgIdr decimal.Decimal  `json:"price_per_kg_idr" validate:"gt=0,scale=4"`
}

type ProductionInput struct {
	LotId      string          `json:"lot_id" validate:"required,max=64"`
	QuantityKg decimal.Decimal `json:"quantity_kg" validate:"gt=0,scale=4"`
}

type ProductionOutput struct {
	ItemId     string           `json:"item_id" validate:"required,max=64"`
	Grade      string           `json:"grade" validate:"max=64"`
	Status     models.LotStatus `json:"status" validate:"required"`
	QuantityKg decimal.Decimal  `json:"quantity_kg" validate:"gt=0,scale=4"`
}

// ProduceRequest transforms input lots into stocked outputs. Input weight not
// covered by outputs is shrinkage.
type ProduceRequest struct {
	RequestHeader
	Inputs  []ProductionInput  `json:"inputs" validate:"required,min=1,dive"`
	Outputs []ProductionOutput `json:"outputs" validate:"required,min=1,dive"`
}

type TransferRequest struct {
	RequestHeader
	SourceLotId  string          `json:"source_lot_id" validate:"required,max=64"`
	QuantityKg   decimal.Decimal `json:"quantity_kg" validate:"gt=0,scale=4"`
	ToLocationId string          `json:"to_location_id" validate:"required,max=64"`
	ToUnitId     string          `json:"to_unit_id" validate:"required,max=64"`
}

type SaleLine struct {
	LotId         string          `json:"lot_id" validate:"required,max=64"`
	QuantityKg    decimal.Decimal `json:"quantity_kg" validate:"gt=0,scale=4"`
	PricePerKgIdr decimal.Decimal `json:"price_per_kg_idr" validate:"gt=0,scale=4"`
}

// SaleRequest serves both ordinary and waste sales; the lot status decides
// which one a lot may go through.
type SaleRequest struct {
	RequestHeader
	BuyerId string     `json:"buyer_id" validate:"required,max=64"`
	Lines   []SaleLine `json:"lines" validate:"required,min=1,dive"`
}

type SettlementRequest struct {
	RequestHeader
	InvoiceId   string          `json:"invoice_id" validate:"required,max=64"`
	AmountIdr   decimal.Decimal `json:"amount_idr" validate:"gt=0,scale=2"`
	BankAccount models.Account  `json:"bank_account"`
}

type FisherPaymentRequest struct {
	RequestHeader
	FisherId    string          `json:"fisher_id" validate:"required,max=64"`
	AmountIdr   decimal.Decimal `json:"amount_idr" validate:"gt=0,scale=2"`
	BankAccount models.Account  `json:"bank_account"`
}

type FundingRequest struct {
	RequestHeader
	AmountIdr     decimal.Decimal `json:"amount_idr" validate:"gt=0,scale=2"`
	SourceAccount models.Account  `json:"source_account" validate:"required"`
	EquityAccount models.Account  `json:"equity_account"`
}

type ExpenseRequest struct {
	RequestHeader
	AmountIdr         decimal.Decimal `json:"amount_idr" validate:"gt=0,scale=2"`
	ExpenseAccount    models.Account  `json:"expense_account" validate:"required"`
	PaymentAccount    models.Account  `json:"payment_account" validate:"required"`
	BeneficiaryUnitId *string         `json:"beneficiary_unit_id" validate:"omitempty,max=64"`
}

// OperationResult is what a caller gets back. A replay returns the same ids
// as the original call with Replayed set.
type OperationResult struct {
	LedgerEntryId     string               `json:"ledger_entry_id"`
	OperationType     models.OperationType `json:"operation_type"`
	LotId             string               `json:"lot_id,omitempty"`
	InputLotIds       []string             `json:"input_lot_ids"`
	OutputLotIds      []string             `json:"output_lot_ids"`
	InvoiceId         string               `json:"invoice_id,omitempty"`
	SettledInvoiceIds []string             `json:"settled_invoice_ids,omitempty"`
	TraceLinkIds      []string             `json:"trace_link_ids"`
	Replayed          bool                 `json:"replayed"`
}
