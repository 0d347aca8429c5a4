package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&StockItem{}, &StockHistory{},
		&Debtor{}, &DebtorTransaction{},
		&SalesInvoice{}, &SalesInvoiceDetail{},
		&DailySalesSummary{}, &IdempotencyKey{},
	)
}
