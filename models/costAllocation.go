package models

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
)

// ConsumedInput is one input lot's contribution to a production run.
type ConsumedInput struct {
	LotId      string
	QuantityKg decimal.Decimal
	CostIdr    decimal.Decimal
}

// CostAllocation is the costing of one production run.
//
//	ShrinkageKg   = TotalInputKg - StockedOutputKg
//	ShrinkageCost = ShrinkageKg * WeightedAvgCostPerKg
//	Allocatable   = TotalInputCost - ShrinkageCost
//	OutputCosts[i] = OutputKg[i] / StockedOutputKg * Allocatable
//
// Sum(OutputCosts) + ShrinkageCost == TotalInputCost holds exactly. Output
// costs are split with largest remainders so none goes negative and none
// drifts more than one money unit from its weight share.
type CostAllocation struct {
	TotalInputKg         decimal.Decimal
	TotalInputCost       decimal.Decimal
	WeightedAvgCostPerKg decimal.Decimal
	StockedOutputKg      decimal.Decimal
	ShrinkageKg          decimal.Decimal
	ShrinkageCost        decimal.Decimal
	AllocatableCost      decimal.Decimal
	OutputCosts          []decimal.Decimal
}

// AllocateProductionCost spreads the consumed input cost over every stocked
// output by weight, sellable waste included.
func AllocateProductionCost(inputs []ConsumedInput, outputKgs []decimal.Decimal) (*CostAllocation, error) {
	if len(inputs) == 0 {
		return nil, NewInvalidArgumentError("production needs at least one input")
	}
	if len(outputKgs) == 0 {
		return nil, NewInvalidArgumentError("production needs at least one output")
	}

	alloc := CostAllocation{
		TotalInputKg:    decimal.Zero,
		TotalInputCost:  decimal.Zero,
		StockedOutputKg: decimal.Zero,
	}
	for _, in := range inputs {
		if !in.QuantityKg.IsPositive() {
			return nil, NewInvalidArgumentError("input %s quantity must be positive", in.LotId)
		}
		alloc.TotalInputKg = alloc.TotalInputKg.Add(in.QuantityKg)
		alloc.TotalInputCost = alloc.TotalInputCost.Add(in.CostIdr)
	}
	for _, kg := range outputKgs {
		if !kg.IsPositive() {
			return nil, NewInvalidArgumentError("output quantity must be positive")
		}
		alloc.StockedOutputKg = alloc.StockedOutputKg.Add(kg)
	}
	if alloc.StockedOutputKg.GreaterThan(alloc.TotalInputKg) {
		return nil, NewFailedPreconditionError("stocked output %s kg exceeds consumed input %s kg",
			alloc.StockedOutputKg.String(), alloc.TotalInputKg.String())
	}

	alloc.WeightedAvgCostPerKg = alloc.TotalInputCost.Div(alloc.TotalInputKg)
	alloc.ShrinkageKg = alloc.TotalInputKg.Sub(alloc.StockedOutputKg)
	alloc.ShrinkageCost = utils.RoundMoney(alloc.ShrinkageKg.Mul(alloc.TotalInputCost).Div(alloc.TotalInputKg))
	if alloc.ShrinkageCost.GreaterThan(alloc.TotalInputCost) {
		alloc.ShrinkageCost = alloc.TotalInputCost
	}
	alloc.AllocatableCost = alloc.TotalInputCost.Sub(alloc.ShrinkageCost)
	alloc.OutputCosts = splitByWeight(alloc.AllocatableCost, outputKgs, alloc.StockedOutputKg)
	return &alloc, nil
}

// splitByWeight divides amount over weights using largest remainders. Every
// share is truncated to MoneyPlaces, then the leftover money units go one at
// a time to the shares that lost the most to truncation, heavier outputs
// first on ties. Shares never go negative and always sum to amount.
func splitByWeight(amount decimal.Decimal, weights []decimal.Decimal, totalWeight decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if !amount.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	fractions := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		exact := w.Mul(amount).Div(totalWeight)
		shares[i] = exact.Truncate(utils.MoneyPlaces)
		fractions[i] = exact.Sub(shares[i])
		allocated = allocated.Add(shares[i])
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := fractions[order[a]], fractions[order[b]]
		if !fa.Equal(fb) {
			return fa.GreaterThan(fb)
		}
		return weights[order[a]].GreaterThan(weights[order[b]])
	})

	unit := decimal.New(1, -utils.MoneyPlaces)
	leftover := amount.Sub(allocated)
	for k := 0; leftover.GreaterThanOrEqual(unit); k = (k + 1) % len(order) {
		shares[order[k]] = shares[order[k]].Add(unit)
		leftover = leftover.Sub(unit)
	}
	// sub-unit residue when amount itself carries more than MoneyPlaces
	if leftover.IsPositive() {
		shares[order[0]] = shares[order[0]].Add(leftover)
	}
	if leftover.IsNegative() {
		// division rounding pushed a share over a unit boundary
		heaviest := 0
		for i, w := range weights {
			if w.GreaterThan(weights[heaviest]) {
				heaviest = i
			}
		}
		shares[heaviest] = shares[heaviest].Add(leftover)
	}
	return shares
}
