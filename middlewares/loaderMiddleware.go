package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch master data lookups made while building one response.
type Loaders struct {
	stockItemLoader *dataloader.Loader[string, *models.StockItem]
	debtorLoader    *dataloader.Loader[string, *models.Debtor]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	stockItemReader := &stockItemReader{db: conn}
	debtorReader := &debtorReader{db: conn}

	return &Loaders{
		stockItemLoader: dataloader.NewBatchedLoader(stockItemReader.getStockItems, dataloader.WithWait[string, *models.StockItem](time.Millisecond)),
		debtorLoader:    dataloader.NewBatchedLoader(debtorReader.getDebtors, dataloader.WithWait[string, *models.Debtor](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateKeyedResults orders rows to match keys. Keys with no row get nil data.
func generateKeyedResults[K comparable, T any](results []T, keys []K, keyOf func(T) K) []*dataloader.Result[*T] {
	resultMap := make(map[K]*T, len(results))
	for i := range results {
		resultMap[keyOf(results[i])] = &results[i]
	}
	loaderResults := make([]*dataloader.Result[*T], 0, len(keys))
	for _, k := range keys {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: resultMap[k]})
	}
	return loaderResults
}
