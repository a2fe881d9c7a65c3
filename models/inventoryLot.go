package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"gorm.io/gorm"
)

const UomKg = "KG"

type LotOrigin struct {
	SourceType  OriginSourceType `gorm:"size:20;not null" json:"source_type"`
	SourceRefId string           `gorm:"size:191;index" json:"source_ref_id"`
	BoatId      *string          `gorm:"size:64" json:"boat_id"`
}

type InventoryLot struct {
	ID                  string          `gorm:"primaryKey;size:64" json:"id"`
	LocationId          string          `gorm:"size:64;index;not null" json:"location_id"`
	UnitId              string          `gorm:"size:64;index;not null" json:"unit_id"`
	ItemId              string          `gorm:"size:64;index;not null" json:"item_id"`
	Grade               string          `gorm:"size:64" json:"grade"`
	Status              LotStatus       `gorm:"size:20;index;not null" json:"status"`
	QuantityKgRemaining decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_kg_remaining"`
	CostPerKgIdr        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_per_kg_idr"`
	CostTotalIdr        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_total_idr"`
	Uom                 string          `gorm:"size:8;not null;default:'KG'" json:"uom"`
	Origin              LotOrigin       `gorm:"embedded;embeddedPrefix:origin_" json:"origin"`
	Version             int             `gorm:"not null;default:0" json:"version"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Lots are drained to zero, never removed; genealogy keeps pointing at them.
func (l *InventoryLot) BeforeDelete(tx *gorm.DB) error {
	return errors.New("inventory lots cannot be deleted")
}

type NewLot struct {
	LocationId   string
	UnitId       string
	ItemId       string
	Grade        string
	Status       LotStatus
	QuantityKg   decimal.Decimal
	CostTotalIdr decimal.Decimal
	// CostPerKgIdr is carried over as is when set (intake price, transfer);
	// otherwise it is derived from CostTotalIdr.
	CostPerKgIdr decimal.Decimal
	Origin       LotOrigin
}

func CreateLot(tx *gorm.DB, input NewLot) (*InventoryLot, error) {
	if !input.QuantityKg.IsPositive() {
		return nil, NewInvalidArgumentError("lot quantity must be positive")
	}
	if input.CostTotalIdr.IsNegative() {
		return nil, NewInvalidArgumentError("lot cost must not be negative")
	}
	if input.CostPerKgIdr.IsZero() {
		input.CostPerKgIdr = input.CostTotalIdr.DivRound(input.QuantityKg, 4)
	}
	lot := InventoryLot{
		ID:                  uuid.NewString(),
		LocationId:          input.LocationId,
		UnitId:              input.UnitId,
		ItemId:              input.ItemId,
		Grade:               input.Grade,
		Status:              input.Status,
		QuantityKgRemaining: input.QuantityKg,
		CostPerKgIdr:        input.CostPerKgIdr,
		CostTotalIdr:        input.CostTotalIdr,
		Uom:                 UomKg,
		Origin:              input.Origin,
	}
	if err := tx.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func GetLot(tx *gorm.DB, id string) (*InventoryLot, error) {
	var lot InventoryLot
	if err := tx.Where("id = ?", id).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("lot %s not found", id)
		}
		return nil, err
	}
	return &lot, nil
}

// GetLots loads every id or fails NOT_FOUND naming the first missing one.
func GetLots(tx *gorm.DB, ids []string) (map[string]*InventoryLot, error) {
	unqIds := utils.UniqueSlice(ids)
	var lots []*InventoryLot
	if err := tx.Where("id IN ?", unqIds).Find(&lots).Error; err != nil {
		return nil, err
	}
	byId := make(map[string]*InventoryLot, len(lots))
	for _, lot := range lots {
		byId[lot.ID] = lot
	}
	for _, id := range unqIds {
		if _, ok := byId[id]; !ok {
			return nil, NewNotFoundError("lot %s not found", id)
		}
	}
	return byId, nil
}

// AssertAt rejects lots that are not held by the given location/unit.
func (l *InventoryLot) AssertAt(locationId string, unitId string) error {
	if l.LocationId != locationId || l.UnitId != unitId {
		return NewFailedPreconditionError("lot %s is held by %s/%s, not %s/%s", l.ID, l.LocationId, l.UnitId, locationId, unitId)
	}
	return nil
}

func (l *InventoryLot) IsConsumable() bool {
	return l.QuantityKgRemaining.IsPositive()
}

// CostOf values kg of this lot at its cost basis. Taking the whole
// remainder returns the whole remaining cost so nothing is stranded by rounding.
func (l *InventoryLot) CostOf(kg decimal.Decimal) decimal.Decimal {
	if kg.Equal(l.QuantityKgRemaining) {
		return l.CostTotalIdr
	}
	cost := utils.RoundMoney(kg.Mul(l.CostPerKgIdr))
	if cost.GreaterThan(l.CostTotalIdr) {
		return l.CostTotalIdr
	}
	return cost
}

// Consume takes kg out of the lot in memory and returns the cost removed.
// Call SaveLot to persist.
func (l *InventoryLot) Consume(kg decimal.Decimal) (decimal.Decimal, error) {
	if !kg.IsPositive() {
		return decimal.Zero, NewInvalidArgumentError("consumed quantity must be positive")
	}
	if !l.IsConsumable() {
		return decimal.Zero, NewFailedPreconditionError("lot %s is empty", l.ID)
	}
	if kg.GreaterThan(l.QuantityKgRemaining) {
		return decimal.Zero, NewFailedPreconditionError("lot %s has %s kg remaining, %s kg requested",
			l.ID, l.QuantityKgRemaining.String(), kg.String())
	}
	cost := l.CostOf(kg)
	l.QuantityKgRemaining = l.QuantityKgRemaining.Sub(kg)
	l.CostTotalIdr = l.CostTotalIdr.Sub(cost)
	if l.QuantityKgRemaining.IsZero() {
		l.CostTotalIdr = decimal.Zero
	}
	return cost, nil
}

// SaveLot writes quantity and cost back using the version read with the lot.
// A concurrent writer bumps the version first and this returns ErrWriteConflict.
func SaveLot(tx *gorm.DB, lot *InventoryLot) error {
	if lot.QuantityKgRemaining.IsNegative() || lot.CostTotalIdr.IsNegative() {
		return NewInternalError("lot %s would go negative", lot.ID)
	}
	res := tx.Model(&InventoryLot{}).
		Where("id = ? AND version = ?", lot.ID, lot.Version).
		Updates(map[string]interface{}{
			"quantity_kg_remaining": lot.QuantityKgRemaining,
			"cost_total_idr":        lot.CostTotalIdr,
			"version":               lot.Version + 1,
			"updated_at":            time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWriteConflict
	}
	lot.Version++
	return nil
}

type LotFilter struct {
	LocationId    string
	UnitId        string
	ItemId        string
	Status        LotStatus
	OnlyAvailable bool
}

// ListLots returns lots matching the filter, oldest first.
func ListLots(tx *gorm.DB, filter LotFilter) ([]*InventoryLot, error) {
	query := tx.Model(&InventoryLot{})
	if filter.LocationId != "" {
		query = query.Where("location_id = ?", filter.LocationId)
	}
	if filter.UnitId != "" {
		query = query.Where("unit_id = ?", filter.UnitId)
	}
	if filter.ItemId != "" {
		query = query.Where("item_id = ?", filter.ItemId)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyAvailable {
		query = query.Where("quantity_kg_remaining > 0")
	}
	var lots []*InventoryLot
	if err := query.Order("created_at ASC, id ASC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}
