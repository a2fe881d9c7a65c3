package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntryLinks struct {
	InputLotIds       []string `json:"input_lot_ids"`
	OutputLotIds      []string `json:"output_lot_ids"`
	InvoiceId         *string  `json:"invoice_id,omitempty"`
	SettledInvoiceIds []string `json:"settled_invoice_ids,omitempty"`
	AttachmentIds     []string `json:"attachment_ids"`
}

// LedgerEntry is the single financial record of one operation. Its ID is the
// operation's idempotency key, so an operation can be posted at most once.
type LedgerEntry struct {
	ID            string        `gorm:"primaryKey;size:191" json:"id"`
	Timestamp     time.Time     `gorm:"index;not null" json:"timestamp"`
	LocationId    string        `gorm:"size:64;index;not null" json:"location_id"`
	UnitId        string        `gorm:"size:64;index;not null" json:"unit_id"`
	ActorUserId   string        `gorm:"size:128;not null" json:"actor_user_id"`
	OperationType OperationType `gorm:"size:32;index;not null" json:"operation_type"`
	OperationId   string        `gorm:"size:128;index;not null" json:"operation_id"`
	Lines         []LedgerLine  `gorm:"foreignKey:EntryId" json:"lines"`
	Links         EntryLinks    `gorm:"type:text;serializer:json" json:"links"`
	Notes         string        `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

type LedgerLine struct {
	ID                string              `gorm:"primaryKey;size:64" json:"id"`
	EntryId           string              `gorm:"size:191;index;not null" json:"entry_id"`
	Seq               int                 `gorm:"not null;default:0" json:"seq"`
	Account           Account             `gorm:"size:64;index;not null" json:"account"`
	Direction         Direction           `gorm:"size:8;not null" json:"direction"`
	AmountIdr         decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"amount_idr"`
	QuantityKg        decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"quantity_kg"`
	LotId             *string             `gorm:"size:64;index" json:"lot_id"`
	PartnerId         *string             `gorm:"size:64;index" json:"partner_id"`
	BeneficiaryUnitId *string             `gorm:"size:64" json:"beneficiary_unit_id"`
}

// Ledger immutability guardrails: entries and lines are append-only.

func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_entries cannot be updated")
}

func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_entries cannot be deleted")
}

func (l *LedgerLine) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_lines cannot be updated")
}

func (l *LedgerLine) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_lines cannot be deleted")
}

func Debit(account Account, amount decimal.Decimal) LedgerLine {
	return LedgerLine{Account: account, Direction: DirectionDebit, AmountIdr: amount}
}

func Credit(account Account, amount decimal.Decimal) LedgerLine {
	return LedgerLine{Account: account, Direction: DirectionCredit, AmountIdr: amount}
}

func (l LedgerLine) WithLot(lotId string, quantityKg decimal.Decimal) LedgerLine {
	l.LotId = &lotId
	l.QuantityKg = decimal.NewNullDecimal(quantityKg)
	return l
}

func (l LedgerLine) WithPartner(partnerId string) LedgerLine {
	l.PartnerId = &partnerId
	return l
}

func (l LedgerLine) WithBeneficiaryUnit(unitId string) LedgerLine {
	l.BeneficiaryUnitId = &unitId
	return l
}

// Totals returns the debit and credit sums of the entry.
func (e *LedgerEntry) Totals() (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range e.Lines {
		switch line.Direction {
		case DirectionDebit:
			debit = debit.Add(line.AmountIdr)
		case DirectionCredit:
			credit = credit.Add(line.AmountIdr)
		}
	}
	return debit, credit
}

// Validate checks the shape of the entry and that debits equal credits.
func (e *LedgerEntry) Validate() error {
	if e.ID == "" {
		return errors.New("ledger entry id is required")
	}
	if len(e.Lines) == 0 {
		return errors.New("ledger entry has no lines")
	}
	for _, line := range e.Lines {
		if line.Account == "" {
			return errors.New("ledger line without account")
		}
		if line.Direction != DirectionDebit && line.Direction != DirectionCredit {
			return errors.New("ledger line with invalid direction")
		}
		if line.AmountIdr.IsNegative() {
			return errors.New("ledger line with negative amount")
		}
		if line.QuantityKg.Valid && line.QuantityKg.Decimal.IsNegative() {
			return errors.New("ledger line with negative quantity")
		}
	}
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return errors.New("unbalanced ledger entry: debit " + debit.String() + " != credit " + credit.String())
	}
	return nil
}

// AppendLedgerEntry validates and inserts the entry and its lines.
// An unbalanced entry is a construction bug in the caller and surfaces as INTERNAL.
func AppendLedgerEntry(tx *gorm.DB, entry *LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return NewInternalError("%s: %v", entry.ID, err)
	}
	for i := range entry.Lines {
		entry.Lines[i].ID = uuid.NewString()
		entry.Lines[i].EntryId = entry.ID
		entry.Lines[i].Seq = i
	}
	if entry.Links.InputLotIds == nil {
		entry.Links.InputLotIds = []string{}
	}
	if entry.Links.OutputLotIds == nil {
		entry.Links.OutputLotIds = []string{}
	}
	if entry.Links.AttachmentIds == nil {
		entry.Links.AttachmentIds = []string{}
	}
	if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
		return err
	}
	return tx.Create(&entry.Lines).Error
}

// FindLedgerEntry looks an entry up by id; (nil, nil) when absent.
func FindLedgerEntry(tx *gorm.DB, id string) (*LedgerEntry, error) {
	var entry LedgerEntry
	err := tx.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func GetLedgerEntry(tx *gorm.DB, id string) (*LedgerEntry, error) {
	entry, err := FindLedgerEntry(tx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, NewNotFoundError("ledger entry %s not found", id)
	}
	return entry, nil
}

type BalanceFilter struct {
	PartnerId  string
	LotId      string
	LocationId string
	UnitId     string
}

// AccountBalance returns debits minus credits posted to the account.
func AccountBalance(tx *gorm.DB, account Account, filter BalanceFilter) (decimal.Decimal, error) {
	query := tx.Model(&LedgerLine{}).Where("ledger_lines.account = ?", account)
	if filter.PartnerId != "" {
		query = query.Where("ledger_lines.partner_id = ?", filter.PartnerId)
	}
	if filter.LotId != "" {
		query = query.Where("ledger_lines.lot_id = ?", filter.LotId)
	}
	if filter.LocationId != "" || filter.UnitId != "" {
		query = query.Joins("JOIN ledger_entries ON ledger_entries.id = ledger_lines.entry_id")
		if filter.LocationId != "" {
			query = query.Where("ledger_entries.location_id = ?", filter.LocationId)
		}
		if filter.UnitId != "" {
			query = query.Where("ledger_entries.unit_id = ?", filter.UnitId)
		}
	}
	var lines []LedgerLine
	if err := query.Select("ledger_lines.direction", "ledger_lines.amount_idr").Find(&lines).Error; err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, line := range lines {
		if line.Direction == DirectionDebit {
			balance = balance.Add(line.AmountIdr)
		} else {
			balance = balance.Sub(line.AmountIdr)
		}
	}
	return balance, nil
}
