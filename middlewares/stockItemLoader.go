package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/retail_ledger/models"
	"gorm.io/gorm"
)

type stockItemReader struct {
	db *gorm.DB
}

func (r *stockItemReader) getStockItems(ctx context.Context, codes []string) []*dataloader.Result[*models.StockItem] {
	var results []models.StockItem
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&results).Error
	if err != nil {
		return handleError[*models.StockItem](len(codes), err)
	}
	return generateKeyedResults(results, codes, func(s models.StockItem) string { return s.Code })
}

func GetStockItems(ctx context.Context, codes []string) ([]*models.StockItem, []error) {
	loaders := For(ctx)
	return loaders.stockItemLoader.LoadMany(ctx, codes)()
}
