package workflow_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/testsupport"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
	"gorm.io/gorm"
)

const (
	locA  = "loc-a"
	unitA = "unit-a"
	unitB = "unit-b"
	locB  = "loc-b"
	unitC = "unit-c"
	actor = "user-1"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestEngine seeds two sites: loc-a with unit-a and unit-b, loc-b with unit-c.
func newTestEngine(t *testing.T, opts workflow.EngineOptions) (*workflow.Engine, *gorm.DB) {
	t.Helper()
	db := testsupport.NewTestDB(t)
	testsupport.SeedSite(t, db, locA, unitA, unitB)
	testsupport.SeedSite(t, db, locB, unitC)
	if opts.Timezone == "" {
		opts.Timezone = "Asia/Jakarta"
	}
	return workflow.NewEngine(db, quietLogger(), opts), db
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02", value, loc)
	require.NoError(t, err)
	return ts.Add(10 * time.Hour)
}

func header(t *testing.T, operationId string, unitId string) workflow.RequestHeader {
	location := locA
	if unitId == unitC {
		location = locB
	}
	return workflow.RequestHeader{
		OperationId: operationId,
		LocationId:  location,
		UnitId:      unitId,
		ActorUserId: actor,
		Timestamp:   at(t, "2026-03-10"),
	}
}

func receive(t *testing.T, engine *workflow.Engine, operationId string, kg string, price string) *workflow.OperationResult {
	t.Helper()
	result, err := engine.Receive(context.Background(), &workflow.ReceiveRequest{
		RequestHeader: header(t, operationId, unitA),
		FisherId:      "fisher-1",
		ItemId:        "tuna",
		Grade:         "A",
		QuantityKg:    dec(kg),
		PricePerKgIdr: dec(price),
	})
	require.NoError(t, err)
	return result
}

func requireLot(t *testing.T, engine *workflow.Engine, lotId string, kg string, cost string) *models.InventoryLot {
	t.Helper()
	lot, err := engine.GetLot(context.Background(), lotId)
	require.NoError(t, err)
	require.True(t, lot.QuantityKgRemaining.Equal(dec(kg)), "lot %s quantity: want %s got %s", lotId, kg, lot.QuantityKgRemaining)
	require.True(t, lot.CostTotalIdr.Equal(dec(cost)), "lot %s cost: want %s got %s", lotId, cost, lot.CostTotalIdr)
	return lot
}

type lineShape struct {
	account   models.Account
	direction models.Direction
	amount    string
}

func requireLines(t *testing.T, entry *models.LedgerEntry, want []lineShape) {
	t.Helper()
	require.Len(t, entry.Lines, len(want))
	for i, w := range want {
		line := entry.Lines[i]
		require.Equal(t, w.account, line.Account, "line %d account", i)
		require.Equal(t, w.direction, line.Direction, "line %d direction", i)
		require.True(t, line.AmountIdr.Equal(dec(w.amount)), "line %d amount: want %s got %s", i, w.amount, line.AmountIdr)
	}
}

// requireAllEntriesBalanced checks debits equal credits on every stored entry.
func requireAllEntriesBalanced(t *testing.T, db *gorm.DB) {
	t.Helper()
	var ids []string
	require.NoError(t, db.Model(&models.LedgerEntry{}).Pluck("id", &ids).Error)
	for _, id := range ids {
		entry, err := models.GetLedgerEntry(db, id)
		require.NoError(t, err)
		debit, credit := entry.Totals()
		require.True(t, debit.Equal(credit), "entry %s: debit %s != credit %s", id, debit, credit)
	}
}
