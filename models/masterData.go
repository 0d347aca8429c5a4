package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNegativeStock = errors.New("adjustment would take stock below zero")

func (s *InvoiceStore) CreateStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {
	if err := input.validate(ctx, s.db); err != nil {
		return nil, err
	}
	item := StockItem{
		Code:             input.Code,
		Description:      input.Description,
		UnitCost:         input.UnitCost,
		UnitSellingPrice: input.UnitSellingPrice,
		QuantityOnHand:   input.QuantityOnHand,
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	if item.QuantityOnHand != 0 {
		opening := StockHistory{
			StockCode:     item.Code,
			Qty:           item.QuantityOnHand,
			ClosingQty:    item.QuantityOnHand,
			Description:   "Opening stock",
			ReferenceType: StockReferenceTypeAdjustment,
			ReferenceID:   item.ID,
		}
		if err := tx.Create(&opening).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AdjustStockQuantity applies a receipt (positive) or write-down (negative).
func (s *InvoiceStore) AdjustStockQuantity(ctx context.Context, code string, input *StockAdjustment) (*StockItem, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() { _ = tx.Rollback().Error }()

	var item StockItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	closing := item.QuantityOnHand + input.Qty
	if closing < 0 {
		return nil, fmt.Errorf("%w: %s has %d", ErrNegativeStock, code, item.QuantityOnHand)
	}
	if err := tx.Model(&item).Update("quantity_on_hand", closing).Error; err != nil {
		return nil, err
	}
	history := StockHistory{
		StockCode:     item.Code,
		Qty:           input.Qty,
		ClosingQty:    closing,
		Description:   input.Description,
		ReferenceType: StockReferenceTypeAdjustment,
		ReferenceID:   item.ID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[StockItem](ctx, item.Code); err != nil {
		config.LogError(config.GetLogger(), "masterData.go", "AdjustStockQuantity", "RemoveRedisItem", item.Code, err)
	}
	item.QuantityOnHand = closing
	return &item, nil
}

func (s *InvoiceStore) ListStockItems(ctx context.Context) ([]*StockItem, error) {
	var items []*StockItem
	err := s.db.WithContext(ctx).Order("code").Find(&items).Error
	return items, err
}

func (s *InvoiceStore) GetStockHistory(ctx context.Context, code string) ([]*StockHistory, error) {
	if err := utils.ValidateResourceCode[StockItem](ctx, s.db, code); err != nil {
		return nil, err
	}
	var rows []*StockHistory
	err := s.db.WithContext(ctx).Where("stock_code = ?", code).Order("id").Find(&rows).Error
	return rows, err
}

func (s *InvoiceStore) CreateDebtor(ctx context.Context, input *NewDebtor) (*Debtor, error) {
	if err := input.validate(ctx, s.db); err != nil {
		return nil, err
	}
	debtor := Debtor{
		Code:        input.Code,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		CreditLimit: input.CreditLimit,
		IsActive:    utils.NewTrue(),
	}
	if err := s.db.WithContext(ctx).Create(&debtor).Error; err != nil {
		return nil, err
	}
	return &debtor, nil
}

func (s *InvoiceStore) ListDebtors(ctx context.Context) ([]*Debtor, error) {
	var debtors []*Debtor
	err := s.db.WithContext(ctx).Order("code").Find(&debtors).Error
	return debtors, err
}

// GetDebtorTransactions returns the debtor's history in [from, to), oldest first.
func (s *InvoiceStore) GetDebtorTransactions(ctx context.Context, code string, from, to time.Time) ([]*DebtorTransaction, error) {
	if err := utils.ValidateResourceCode[Debtor](ctx, s.db, code); err != nil {
		return nil, err
	}
	var rows []*DebtorTransaction
	err := s.db.WithContext(ctx).
		Where("debtor_code = ? AND transaction_date >= ? AND transaction_date < ?", code, from, to).
		Order("id").
		Find(&rows).Error
	return rows, err
}
