package reports

import (
	"fmt"

	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/xuri/excelize/v2"
)

const (
	invoiceSheet   = "Invoices"
	detailSheet    = "Details"
	statementSheet = "Statement"
)

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// ExportSalesInvoices writes one header sheet and one detail sheet.
// debtorNames may be nil; missing names are left blank.
func ExportSalesInvoices(invoices []*models.SalesInvoice, debtorNames map[string]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, invoiceSheet, 1, "InvoiceNumber", "InvoiceDate", "DebtorCode", "DebtorName", "SubTotal", "Tax", "Total", "Cost", "CreatedBy"); err != nil {
		return nil, err
	}
	if err := setRow(f, detailSheet, 1, "InvoiceNumber", "LineNo", "StockCode", "Description", "Qty", "UnitCost", "UnitSell", "DiscountPercent", "DiscountAmount", "LineTotal"); err != nil {
		return nil, err
	}

	detailRow := 2
	for i, inv := range invoices {
		if err := setRow(f, invoiceSheet, i+2,
			inv.InvoiceNumber,
			inv.InvoiceDate.Format("2006-01-02 15:04"),
			inv.DebtorCode,
			debtorNames[inv.DebtorCode],
			inv.SubTotal.InexactFloat64(),
			inv.TaxAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			inv.TotalCost.InexactFloat64(),
			inv.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("invoice row %s: %w", inv.InvoiceNumber, err)
		}
		for _, d := range inv.Details {
			if err := setRow(f, detailSheet, detailRow,
				inv.InvoiceNumber,
				d.LineNo,
				d.StockCode,
				d.Description,
				d.Qty,
				d.UnitCost.InexactFloat64(),
				d.UnitSell.InexactFloat64(),
				d.DiscountPercent.InexactFloat64(),
				d.DiscountAmount.InexactFloat64(),
				d.LineTotal.InexactFloat64(),
			); err != nil {
				return nil, fmt.Errorf("detail row %s/%d: %w", inv.InvoiceNumber, d.LineNo, err)
			}
			detailRow++
		}
	}
	return f, nil
}

func ExportDebtorStatement(debtor *models.Debtor, rows []*models.DebtorTransaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, statementSheet, 1, "Debtor", debtor.Code, debtor.Name); err != nil {
		return nil, err
	}
	if err := setRow(f, statementSheet, 2, "Date", "Reference", "Amount", "Balance"); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, statementSheet, i+3,
			r.TransactionDate.Format("2006-01-02"),
			r.ReferenceNumber,
			r.Amount.InexactFloat64(),
			r.RunningBalance.InexactFloat64(),
		); err != nil {
			return nil, err
		}
	}
	if err := setRow(f, statementSheet, len(rows)+3, "Closing balance", "", "", debtor.Balance.InexactFloat64()); err != nil {
		return nil, err
	}
	return f, nil
}
