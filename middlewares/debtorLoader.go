package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/retail_ledger/models"
	"gorm.io/gorm"
)

type debtorReader struct {
	db *gorm.DB
}

func (r *debtorReader) getDebtors(ctx context.Context, codes []string) []*dataloader.Result[*models.Debtor] {
	var results []models.Debtor
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&results).Error
	if err != nil {
		return handleError[*models.Debtor](len(codes), err)
	}
	return generateKeyedResults(results, codes, func(d models.Debtor) string { return d.Code })
}

func GetDebtor(ctx context.Context, code string) (*models.Debtor, error) {
	loaders := For(ctx)
	return loaders.debtorLoader.Load(ctx, code)()
}
