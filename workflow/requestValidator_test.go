package workflow_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
)

func TestRequestValidatorDecimals(t *testing.T) {
	validate := workflow.NewRequestValidator()

	tests := []struct {
		kg    string
		valid bool
	}{
		{"0.0001", true},
		{"500", true},
		{"12.50000", true},
		{"0.00004", false},
		{"100.12345", false},
		{"0", false},
		{"-3", false},
	}
	for _, tt := range tests {
		t.Run(tt.kg, func(t *testing.T) {
			err := validate.Struct(workflow.ProductionInput{LotId: "lot-1", QuantityKg: dec(tt.kg)})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fieldErrs validator.ValidationErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Equal(t, "quantity_kg", fieldErrs[0].Field())
		})
	}
}

func TestRequestValidatorNestedLines(t *testing.T) {
	validate := workflow.NewRequestValidator()
	req := workflow.SaleRequest{
		RequestHeader: header(t, "sale-1", unitA),
		BuyerId:       "buyer-1",
		Lines:         []workflow.SaleLine{{LotId: "", QuantityKg: dec("1"), PricePerKgIdr: dec("1")}},
	}
	err := validate.Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lot_id")

	req.Lines = nil
	assert.Error(t, validate.Struct(req))
}

func TestRequestValidatorMoneyScale(t *testing.T) {
	validate := workflow.NewRequestValidator()

	tests := []struct {
		amount string
		valid  bool
	}{
		{"1000", true},
		{"999.99", true},
		{"999.990", true},
		{"999.995", false},
		{"999.99996", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := validate.Struct(workflow.SettlementRequest{
				RequestHeader: header(t, "settle-1", unitA),
				InvoiceId:     "inv-1",
				AmountIdr:     dec(tt.amount),
			})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "amount_idr")
			assert.Contains(t, err.Error(), "scale")
		})
	}
}

func TestRequestValidatorSaleLineScale(t *testing.T) {
	validate := workflow.NewRequestValidator()
	req := workflow.SaleRequest{
		RequestHeader: header(t, "sale-1", unitA),
		BuyerId:       "buyer-1",
		Lines:         []workflow.SaleLine{{LotId: "lot-1", QuantityKg: dec("1.5"), PricePerKgIdr: dec("100000.12345")}},
	}
	err := validate.Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_per_kg_idr")

	req.Lines[0].PricePerKgIdr = dec("100000.1234")
	assert.NoError(t, validate.Struct(req))
}
