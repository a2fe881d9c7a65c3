package workflow

import (
	"time"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
)

// enforceMasterData checks the header's location/unit pairing and any
// further references the operation carries.
func enforceMasterData(tx *gorm.DB, op ledgerOperation) error {
	header := op.Header()
	if err := models.VerifyLocationUnit(tx, header.LocationId, header.UnitId); err != nil {
		return err
	}
	return op.verify(tx)
}

// enforcePostingGate rejects operations dated into a closed period.
func enforcePostingGate(tx *gorm.DB, timestamp time.Time, timezone string) error {
	return models.AssertPeriodWritable(tx, timestamp, timezone)
}
