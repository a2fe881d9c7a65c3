package models

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const CurrencyIdr = "IDR"

type Invoice struct {
	ID             string          `gorm:"primaryKey;size:64" json:"id"`
	Type           InvoiceType     `gorm:"size:4;index;not null" json:"type"`
	Status         InvoiceStatus   `gorm:"size:8;index;not null" json:"status"`
	LocationId     string          `gorm:"size:64;index;not null" json:"location_id"`
	UnitId         string          `gorm:"size:64;index;not null" json:"unit_id"`
	PartnerId      string          `gorm:"size:64;index;not null" json:"partner_id"`
	Currency       string          `gorm:"size:3;not null;default:'IDR'" json:"currency"`
	TotalAmountIdr decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_amount_idr"`
	PaidAmountIdr  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount_idr"`
	SourceEntryId  string          `gorm:"size:191;index" json:"source_entry_id"`
	Version        int             `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeDelete(tx *gorm.DB) error {
	return errors.New("invoices cannot be deleted")
}

type NewInvoice struct {
	Type           InvoiceType
	LocationId     string
	UnitId         string
	PartnerId      string
	TotalAmountIdr decimal.Decimal
	SourceEntryId  string
}

// CreateInvoice opens a document with nothing paid.
func CreateInvoice(tx *gorm.DB, input NewInvoice) (*Invoice, error) {
	if !input.TotalAmountIdr.IsPositive() {
		return nil, NewInvalidArgumentError("invoice total must be positive")
	}
	invoice := Invoice{
		ID:             uuid.NewString(),
		Type:           input.Type,
		Status:         InvoiceStatusOpen,
		LocationId:     input.LocationId,
		UnitId:         input.UnitId,
		PartnerId:      input.PartnerId,
		Currency:       CurrencyIdr,
		TotalAmountIdr: input.TotalAmountIdr,
		PaidAmountIdr:  decimal.Zero,
		SourceEntryId:  input.SourceEntryId,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoice(tx *gorm.DB, id string) (*Invoice, error) {
	var invoice Invoice
	if err := tx.Where("id = ?", id).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("invoice %s not found", id)
		}
		return nil, err
	}
	return &invoice, nil
}

func (i *Invoice) Outstanding() decimal.Decimal {
	out := i.TotalAmountIdr.Sub(i.PaidAmountIdr)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ApplySettlement adds a payment in memory. The invoice stays OPEN until the
// cumulative payment reaches the total, then becomes PAID.
func (i *Invoice) ApplySettlement(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewInvalidArgumentError("settlement amount must be positive")
	}
	if i.Status != InvoiceStatusOpen {
		return NewFailedPreconditionError("invoice %s is %s", i.ID, i.Status)
	}
	if amount.GreaterThan(i.Outstanding()) {
		return NewFailedPreconditionError("settlement %s exceeds outstanding %s on invoice %s",
			amount.String(), i.Outstanding().String(), i.ID)
	}
	i.PaidAmountIdr = i.PaidAmountIdr.Add(amount)
	if i.PaidAmountIdr.GreaterThanOrEqual(i.TotalAmountIdr) {
		i.Status = InvoiceStatusPaid
	}
	return nil
}

// SaveInvoiceSettlement persists paid amount and status under the read version.
func SaveInvoiceSettlement(tx *gorm.DB, invoice *Invoice) error {
	res := tx.Model(&Invoice{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version).
		Updates(map[string]interface{}{
			"paid_amount_idr": invoice.PaidAmountIdr,
			"status":          invoice.Status,
			"version":         invoice.Version + 1,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWriteConflict
	}
	invoice.Version++
	return nil
}

// ListOpenPayables returns a partner's OPEN AP invoices for a unit, oldest first.
func ListOpenPayables(tx *gorm.DB, partnerId string, unitId string) ([]*Invoice, error) {
	var invoices []*Invoice
	if err := tx.Where("type = ? AND status = ? AND partner_id = ? AND unit_id = ?",
		InvoiceTypeAP, InvoiceStatusOpen, partnerId, unitId).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(invoices, func(a, b int) bool {
		if invoices[a].CreatedAt.Equal(invoices[b].CreatedAt) {
			return invoices[a].ID < invoices[b].ID
		}
		return invoices[a].CreatedAt.Before(invoices[b].CreatedAt)
	})
	return invoices, nil
}
