package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesInvoice is the posted header. Rows are written once by CommitInvoice.
type SalesInvoice struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	SequenceNo    int64                `gorm:"not null;uniqueIndex" json:"sequence_no"`
	InvoiceNumber string               `gorm:"size:50;not null;uniqueIndex" json:"invoice_number"`
	ConfirmKey    string               `gorm:"size:36;not null;uniqueIndex" json:"confirm_key"`
	DebtorCode    string               `gorm:"size:20;not null;index" json:"debtor_code"`
	InvoiceDate   time.Time            `gorm:"not null;index" json:"invoice_date"`
	SubTotal      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	TaxAmount     decimal.Decimal      `gorm:"type:decimal(20,6);default:0" json:"tax_amount"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	TotalCost     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	CreatedBy     string               `gorm:"size:100" json:"created_by"`
	Details       []SalesInvoiceDetail `gorm:"foreignKey:SalesInvoiceId" json:"details"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

type SalesInvoiceDetail struct {
	ID              int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId  int             `gorm:"index;not null" json:"sales_invoice_id"`
	LineNo          int             `gorm:"not null" json:"line_no"`
	StockCode       string          `gorm:"size:20;not null;index" json:"stock_code"`
	Description     string          `gorm:"size:255" json:"description"`
	Qty             int             `gorm:"not null" json:"qty"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	UnitSell        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_sell"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

// DailySalesSummary is maintained from invoice-posted events.
type DailySalesSummary struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SummaryDate  time.Time       `gorm:"type:date;not null;uniqueIndex" json:"summary_date"`
	InvoiceCount int             `gorm:"not null;default:0" json:"invoice_count"`
	SubTotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"tax_amount"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GrossProfit is subtotal less cost of goods.
func (inv *SalesInvoice) GrossProfit() decimal.Decimal {
	return inv.SubTotal.Sub(inv.TotalCost)
}
