package models

import (
	"time"

	"gorm.io/gorm"
)

type StockReferenceType string

const (
	StockReferenceTypeInvoice    StockReferenceType = "IV"
	StockReferenceTypeAdjustment StockReferenceType = "ADJ"
)

// StockHistory is the append-only movement ledger of a stock item.
type StockHistory struct {
	ID                int                `gorm:"primary_key" json:"id"`
	StockCode         string             `gorm:"size:20;not null;index" json:"stock_code"`
	StockDate         time.Time          `gorm:"not null" json:"stock_date"`
	Qty               int                `gorm:"not null" json:"qty"`
	ClosingQty        int                `gorm:"not null" json:"closing_qty"`
	Description       string             `gorm:"size:100;not null" json:"description"`
	ReferenceType     StockReferenceType `gorm:"type:enum('IV','ADJ')" json:"reference_type"`
	ReferenceID       int                `json:"reference_id"`
	ReferenceDetailID int                `json:"reference_detail_id"`
	IsOutgoing        *bool              `gorm:"not null;default:false" json:"is_outgoing"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (sh *StockHistory) BeforeSave(tx *gorm.DB) error {
	outgoing := sh.Qty < 0
	sh.IsOutgoing = &outgoing
	if sh.StockDate.IsZero() {
		sh.StockDate = time.Now()
	}
	return nil
}
