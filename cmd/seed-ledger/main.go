// seed-ledger creates demo stock items and debtors. Existing codes are skipped.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-ledger
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
)

var stockItems = []models.NewStockItem{
	{Code: "STK001", Description: "Rice cooker", UnitCost: decimal.NewFromInt(1200), UnitSellingPrice: decimal.NewFromInt(1800), QuantityOnHand: 10},
	{Code: "STK002", Description: "Electric kettle", UnitCost: decimal.RequireFromString("310.25"), UnitSellingPrice: decimal.RequireFromString("499.99"), QuantityOnHand: 25},
	{Code: "STK003", Description: "Table fan", UnitCost: decimal.NewFromInt(850), UnitSellingPrice: decimal.NewFromInt(1250), QuantityOnHand: 8},
}

var debtors = []models.NewDebtor{
	{Code: "D001", Name: "Ko Aung Trading", Phone: "09 212 3456", CreditLimit: decimal.NewFromInt(50000)},
	{Code: "D002", Name: "Daw Mya Store", Email: "mya.store@example.com", CreditLimit: decimal.NewFromInt(20000)},
	{Code: "CASH", Name: "Cash Customer"},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	store := models.NewInvoiceStore(db)

	for i := range stockItems {
		input := stockItems[i]
		item, err := store.CreateStockItem(ctx, &input)
		if errors.Is(err, utils.ErrorDuplicateValue) {
			fmt.Printf("stock %s exists, skipped\n", input.Code)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "stock %s: %v\n", input.Code, err)
			os.Exit(1)
		}
		fmt.Printf("stock %s created (on hand %d)\n", item.Code, item.QuantityOnHand)
	}

	for i := range debtors {
		input := debtors[i]
		debtor, err := store.CreateDebtor(ctx, &input)
		if errors.Is(err, utils.ErrorDuplicateValue) {
			fmt.Printf("debtor %s exists, skipped\n", input.Code)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "debtor %s: %v\n", input.Code, err)
			os.Exit(1)
		}
		fmt.Printf("debtor %s created\n", debtor.Code)
	}
}
