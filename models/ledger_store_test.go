package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/testsupport"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAppendLedgerEntryRejectsUnbalancedEntry(t *testing.T) {
	db := testsupport.NewTestDB(t)

	entry := &models.LedgerEntry{
		ID:            "receive-unit-a-op-1",
		Timestamp:     time.Now().UTC(),
		LocationId:    "loc-a",
		UnitId:        "unit-a",
		ActorUserId:   "user-1",
		OperationType: models.OperationTypeReceive,
		OperationId:   "op-1",
		Lines: []models.LedgerLine{
			models.Debit(models.AccountInventoryRaw, dec("100")),
			models.Credit(models.AccountFisherLiability, dec("99")),
		},
	}
	err := models.AppendLedgerEntry(db, entry)
	if models.ErrorCode(err) != codes.Internal {
		t.Fatalf("expected Internal for unbalanced entry, got %v", err)
	}

	var count int64
	db.Model(&models.LedgerEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected nothing written, found %d entries", count)
	}
}

func TestLedgerEntriesAreImmutable(t *testing.T) {
	db := testsupport.NewTestDB(t)

	entry := &models.LedgerEntry{
		ID:            "funding-unit-a-op-1",
		Timestamp:     time.Now().UTC(),
		LocationId:    "loc-a",
		UnitId:        "unit-a",
		ActorUserId:   "user-1",
		OperationType: models.OperationTypeFunding,
		OperationId:   "op-1",
		Lines: []models.LedgerLine{
			models.Debit(models.AccountBank, dec("250000")),
			models.Credit(models.AccountEquityCapital, dec("250000")),
		},
	}
	if err := models.AppendLedgerEntry(db, entry); err != nil {
		t.Fatalf("AppendLedgerEntry: %v", err)
	}

	stored, err := models.GetLedgerEntry(db, entry.ID)
	if err != nil {
		t.Fatalf("GetLedgerEntry: %v", err)
	}
	if len(stored.Lines) != 2 || stored.Lines[0].Direction != models.DirectionDebit {
		t.Fatalf("expected lines in posting order, got %+v", stored.Lines)
	}

	if err := db.Model(stored).Update("notes", "edited").Error; err == nil {
		t.Fatalf("expected update of a ledger entry to fail")
	}
	if err := db.Delete(&stored.Lines[0]).Error; err == nil {
		t.Fatalf("expected delete of a ledger line to fail")
	}

	balance, err := models.AccountBalance(db, models.AccountBank, models.BalanceFilter{UnitId: "unit-a"})
	if err != nil {
		t.Fatalf("AccountBalance: %v", err)
	}
	if !balance.Equal(dec("250000")) {
		t.Fatalf("expected bank balance 250000, got %s", balance)
	}
	equity, err := models.AccountBalance(db, models.AccountEquityCapital, models.BalanceFilter{})
	if err != nil {
		t.Fatalf("AccountBalance: %v", err)
	}
	if !equity.Equal(dec("-250000")) {
		t.Fatalf("expected equity balance -250000, got %s", equity)
	}
}

func TestSaveLotDetectsStaleVersion(t *testing.T) {
	db := testsupport.NewTestDB(t)

	lot, err := models.CreateLot(db, models.NewLot{
		LocationId:   "loc-a",
		UnitId:       "unit-a",
		ItemId:       "tuna",
		Status:       models.LotStatusRaw,
		QuantityKg:   dec("100"),
		CostTotalIdr: dec("1500000"),
		Origin:       models.LotOrigin{SourceType: models.OriginSourceCatch, SourceRefId: "receive-x"},
	})
	if err != nil {
		t.Fatalf("CreateLot: %v", err)
	}
	if !lot.CostPerKgIdr.Equal(dec("15000")) {
		t.Fatalf("expected derived cost per kg 15000, got %s", lot.CostPerKgIdr)
	}

	first, _ := models.GetLot(db, lot.ID)
	second, _ := models.GetLot(db, lot.ID)

	if _, err := first.Consume(dec("10")); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := models.SaveLot(db, first); err != nil {
		t.Fatalf("SaveLot: %v", err)
	}

	if _, err := second.Consume(dec("10")); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := models.SaveLot(db, second); !errors.Is(err, models.ErrWriteConflict) {
		t.Fatalf("expected ErrWriteConflict, got %v", err)
	}

	stored, _ := models.GetLot(db, lot.ID)
	if !stored.QuantityKgRemaining.Equal(dec("90")) || stored.Version != 1 {
		t.Fatalf("expected 90kg at version 1, got %s at version %d", stored.QuantityKgRemaining, stored.Version)
	}
	if err := db.Delete(stored).Error; err == nil {
		t.Fatalf("expected lot delete to fail")
	}
}

func TestRunInTransactionRetriesConflicts(t *testing.T) {
	db := testsupport.NewTestDB(t)
	ctx := context.Background()

	attempts := 0
	err := models.RunInTransaction(ctx, db, models.TxOptions{MaxRetries: 3}, func(tx *gorm.DB) error {
		attempts++
		if err := tx.Create(&models.Location{ID: "loc-a"}).Error; err != nil {
			return err
		}
		if attempts < 3 {
			return models.ErrWriteConflict
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	var count int64
	db.Model(&models.Location{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected only the committed attempt to persist, found %d rows", count)
	}

	attempts = 0
	err = models.RunInTransaction(ctx, db, models.TxOptions{MaxRetries: 2}, func(tx *gorm.DB) error {
		attempts++
		return models.ErrWriteConflict
	})
	if models.ErrorCode(err) != codes.Aborted || attempts != 2 {
		t.Fatalf("expected Aborted after 2 attempts, got %v after %d", err, attempts)
	}

	attempts = 0
	err = models.RunInTransaction(ctx, db, models.TxOptions{MaxRetries: 5}, func(tx *gorm.DB) error {
		attempts++
		return models.NewFailedPreconditionError("business rule")
	})
	if models.ErrorCode(err) != codes.FailedPrecondition || attempts != 1 {
		t.Fatalf("expected one FailedPrecondition attempt, got %v after %d", err, attempts)
	}
}

func TestIsWriteConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"version mismatch", models.ErrWriteConflict, true},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: ledger_entries.id (1555)"), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"business error", models.NewNotFoundError("lot x not found"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := models.IsWriteConflict(tt.err); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
