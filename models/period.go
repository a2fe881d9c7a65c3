package models

import (
	"errors"
	"time"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"gorm.io/gorm"
)

// Period is an accounting month. StartDate and EndDate are calendar days
// (midnight in the ledger timezone); EndDate is inclusive.
type Period struct {
	ID          string       `gorm:"primaryKey;size:7" json:"id"`
	StartDate   time.Time    `gorm:"not null" json:"start_date"`
	EndDate     time.Time    `gorm:"not null;index" json:"end_date"`
	Status      PeriodStatus `gorm:"size:8;index;not null" json:"status"`
	ClosedAt    *time.Time   `json:"closed_at"`
	ClosedByUid *string      `gorm:"size:128" json:"closed_by_uid"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// AssertPeriodWritable rejects a write dated inside a CLOSED period or on/before
// the end of any CLOSED period: closing a month locks every earlier date too.
func AssertPeriodWritable(tx *gorm.DB, date time.Time, timezone string) error {
	periodId, err := utils.PeriodIdOf(date, timezone)
	if err != nil {
		return err
	}
	day, err := utils.ConvertToDate(date, timezone)
	if err != nil {
		return err
	}

	var closed []*Period
	if err := tx.Where("status = ?", PeriodStatusClosed).Find(&closed).Error; err != nil {
		return err
	}
	for _, p := range closed {
		if p.ID == periodId {
			return NewFailedPreconditionError("period %s is closed", periodId)
		}
	}
	for _, p := range closed {
		endDay, err := utils.ConvertToDate(p.EndDate, timezone)
		if err != nil {
			return err
		}
		// compare calendar days, not instants: EndDate is inclusive
		if !endDay.Before(day) {
			return NewFailedPreconditionError("date %s is locked by closed period %s",
				day.Format("2006-01-02"), p.ID)
		}
	}
	return nil
}

// ClosePeriod moves a period to CLOSED. Closing an already closed period is a no-op.
func ClosePeriod(tx *gorm.DB, periodId string, actorUserId string, timezone string) (*Period, error) {
	start, end, err := utils.MonthRange(periodId, timezone)
	if err != nil {
		return nil, NewInvalidArgumentError("%v", err)
	}
	canonicalId := start.Format("2006-01")
	if canonicalId != periodId {
		return nil, NewInvalidArgumentError("invalid period id %q: expected YYYY-MM", periodId)
	}

	var period Period
	err = tx.Where("id = ?", periodId).First(&period).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && period.Status == PeriodStatusClosed {
		return &period, nil
	}

	now := time.Now().UTC()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		period = Period{
			ID:          periodId,
			StartDate:   start,
			EndDate:     end,
			Status:      PeriodStatusClosed,
			ClosedAt:    &now,
			ClosedByUid: &actorUserId,
		}
		if err := tx.Create(&period).Error; err != nil {
			return nil, err
		}
		return &period, nil
	}

	if err := tx.Model(&Period{}).Where("id = ? AND status = ?", periodId, PeriodStatusOpen).
		Updates(map[string]interface{}{
			"status":        PeriodStatusClosed,
			"closed_at":     &now,
			"closed_by_uid": actorUserId,
		}).Error; err != nil {
		return nil, err
	}
	period.Status = PeriodStatusClosed
	period.ClosedAt = &now
	period.ClosedByUid = &actorUserId
	return &period, nil
}

func GetPeriod(tx *gorm.DB, periodId string) (*Period, error) {
	var period Period
	if err := tx.Where("id = ?", periodId).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("period %s not found", periodId)
		}
		return nil, err
	}
	return &period, nil
}

func ListPeriods(tx *gorm.DB) ([]*Period, error) {
	var periods []*Period
	if err := tx.Order("id ASC").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}
