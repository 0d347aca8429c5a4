package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is the sellable master record. QuantityOnHand only moves through
// CommitInvoice and AdjustStockQuantity.
type StockItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Code             string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Description      string          `gorm:"size:255;not null" json:"description"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	UnitSellingPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_selling_price"`
	QuantityOnHand   int             `gorm:"not null;default:0" json:"quantity_on_hand"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockItem struct {
	Code             string          `json:"code" binding:"required,max=20"`
	Description      string          `json:"description" binding:"required,max=255"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price"`
	QuantityOnHand   int             `json:"quantity_on_hand" binding:"gte=0"`
}

type StockAdjustment struct {
	Qty         int    `json:"qty" binding:"required"`
	Description string `json:"description" binding:"required,max=100"`
}

func (input *NewStockItem) validate(ctx context.Context, db *gorm.DB) error {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.UnitCost.IsNegative() || input.UnitSellingPrice.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", utils.ErrorInvalidInput)
	}
	return utils.ValidateUnique[StockItem](ctx, db, "code", input.Code, nil)
}
