package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesByDebtorResponse struct {
	DebtorCode   string          `json:"debtor_code"`
	DebtorName   *string         `json:"debtor_name"`
	InvoiceCount int             `json:"invoice_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

func GetSalesByDebtorReport(ctx context.Context, db *gorm.DB, from, to time.Time) ([]*SalesByDebtorResponse, error) {
	sql := `
SELECT
    siv.debtor_code,
    debtors.name AS debtor_name,
    siv.invoice_count,
    siv.total_sales,
    siv.total_tax,
    siv.total_cost
FROM
    (
        SELECT
            debtor_code,
            COUNT(id) AS invoice_count,
            SUM(sub_total) AS total_sales,
            SUM(tax_amount) AS total_tax,
            SUM(total_cost) AS total_cost
        FROM
            sales_invoices
        WHERE
            invoice_date >= ? AND invoice_date < ?
        GROUP BY
            debtor_code
    ) AS siv
    LEFT JOIN debtors ON debtors.code = siv.debtor_code
ORDER BY siv.total_sales DESC;
`
	var records []*SalesByDebtorResponse
	if err := db.WithContext(ctx).Raw(sql, from, to).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
