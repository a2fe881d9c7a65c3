package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Location is a physical site (landing point, plant, cold store).
// Master data is owned by collaborators; the engine only reads it.
type Location struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Unit is a business unit operating at exactly one location.
type Unit struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	LocationId string    `gorm:"size:64;index;not null" json:"location_id"`
	Name       string    `gorm:"size:255" json:"name"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetLocation(tx *gorm.DB, id string) (*Location, error) {
	var location Location
	if err := tx.Where("id = ?", id).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("location %s not found", id)
		}
		return nil, err
	}
	return &location, nil
}

func GetUnit(tx *gorm.DB, id string) (*Unit, error) {
	var unit Unit
	if err := tx.Where("id = ?", id).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("unit %s not found", id)
		}
		return nil, err
	}
	return &unit, nil
}

// VerifyLocationUnit checks both records exist and that the unit operates at the location.
func VerifyLocationUnit(tx *gorm.DB, locationId string, unitId string) error {
	if _, err := GetLocation(tx, locationId); err != nil {
		return err
	}
	unit, err := GetUnit(tx, unitId)
	if err != nil {
		return err
	}
	if unit.LocationId != locationId {
		return NewFailedPreconditionError("unit %s does not belong to location %s", unitId, locationId)
	}
	return nil
}
