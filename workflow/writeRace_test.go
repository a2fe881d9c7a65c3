package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
	"gorm.io/gorm"
)

func tableOf(db *gorm.DB) string {
	if db.Statement.Schema == nil {
		return db.Statement.Table
	}
	return db.Statement.Schema.Table
}

// The competing writer commits between our idempotency lookup and our insert.
// Inside the single test connection that is modelled by writing its entry on
// the open transaction: the first attempt then hits a real duplicate key, and
// the rerun sees the committed entry and replays it.
func TestDuplicateKeyLoserReplaysWinner(t *testing.T) {
	engine, db := newTestEngine(t, workflow.EngineOptions{})
	key := workflow.IdempotencyKey(models.OperationTypeReceive, unitA, "op-1")

	winner := func(tx *gorm.DB) error {
		return models.AppendLedgerEntry(tx.Session(&gorm.Session{NewDB: true}), &models.LedgerEntry{
			ID:            key,
			Timestamp:     at(t, "2026-03-10").UTC(),
			LocationId:    locA,
			UnitId:        unitA,
			ActorUserId:   "user-2",
			OperationType: models.OperationTypeReceive,
			OperationId:   "op-1",
			Lines: []models.LedgerLine{
				models.Debit(models.AccountInventoryRaw, dec("1500000")),
				models.Credit(models.AccountFisherLiability, dec("1500000")).WithPartner("fisher-1"),
			},
		})
	}

	stage := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:winner_inserts_first", func(tx *gorm.DB) {
		if stage != 0 || tableOf(tx) != "ledger_entries" {
			return
		}
		stage = 1
		if err := winner(tx); err != nil {
			_ = tx.AddError(err)
		}
	}))
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:winner_committed", func(tx *gorm.DB) {
		if stage != 1 || tableOf(tx) != "ledger_entries" {
			return
		}
		stage = 2
		if err := winner(tx); err != nil {
			_ = tx.AddError(err)
		}
	}))

	result, err := engine.Receive(context.Background(), &workflow.ReceiveRequest{
		RequestHeader: header(t, "op-1", unitA),
		FisherId:      "fisher-1",
		ItemId:        "tuna",
		QuantityKg:    dec("100"),
		PricePerKgIdr: dec("15000"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stage)
	assert.True(t, result.Replayed)
	assert.Equal(t, key, result.LedgerEntryId)

	entry, err := engine.GetLedgerEntry(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "user-2", entry.ActorUserId)

	// the loser's lot and invoice went with its rolled back attempt
	var lots, invoices int64
	require.NoError(t, db.Model(&models.InventoryLot{}).Count(&lots).Error)
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, lots)
	assert.Zero(t, invoices)
}

// A concurrent sale bumps the lot version after we read it; the stale
// versioned update fails and the rerun posts against the fresh row.
func TestStaleLotVersionRetriesPosting(t *testing.T) {
	engine, db := newTestEngine(t, workflow.EngineOptions{})
	ctx := context.Background()
	input := receive(t, engine, "op-1", "100", "15000")
	produced, err := engine.Produce(ctx, &workflow.ProduceRequest{
		RequestHeader: header(t, "prod-1", unitA),
		Inputs:        []workflow.ProductionInput{{LotId: input.LotId, QuantityKg: dec("100")}},
		Outputs:       []workflow.ProductionOutput{{ItemId: "loin", Status: models.LotStatusFinished, QuantityKg: dec("100")}},
	})
	require.NoError(t, err)
	before := requireLot(t, engine, produced.LotId, "100", "1500000")

	lotUpdates := 0
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:concurrent_version_bump", func(tx *gorm.DB) {
		if tableOf(tx) != "inventory_lots" {
			return
		}
		lotUpdates++
		if lotUpdates > 1 {
			return
		}
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE inventory_lots SET version = version + 1 WHERE id = ?", produced.LotId).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	}))

	result, err := engine.Sell(ctx, &workflow.SaleRequest{
		RequestHeader: header(t, "sale-1", unitA),
		BuyerId:       "buyer-1",
		Lines:         []workflow.SaleLine{{LotId: produced.LotId, QuantityKg: dec("30"), PricePerKgIdr: dec("20000")}},
	})
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, 2, lotUpdates)

	after := requireLot(t, engine, produced.LotId, "70", "1050000")
	// the bump rolled back with the first attempt; only the retry's write landed
	assert.Equal(t, before.Version+1, after.Version)
	requireAllEntriesBalanced(t, db)
}
