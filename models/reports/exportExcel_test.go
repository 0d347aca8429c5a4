package reports

import (
	"testing"
	"time"

	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/shopspring/decimal"
)

func TestExportSalesInvoices(t *testing.T) {
	invoices := []*models.SalesInvoice{{
		InvoiceNumber: "INV-1",
		InvoiceDate:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		DebtorCode:    "D001",
		SubTotal:      decimal.NewFromInt(9000),
		TaxAmount:     decimal.NewFromInt(1350),
		TotalAmount:   decimal.NewFromInt(10350),
		TotalCost:     decimal.NewFromInt(6000),
		Details: []models.SalesInvoiceDetail{
			{LineNo: 1, StockCode: "STK001", Qty: 5, UnitCost: decimal.NewFromInt(1200), UnitSell: decimal.NewFromInt(1800), LineTotal: decimal.NewFromInt(9000)},
		},
	}}

	f, err := ExportSalesInvoices(invoices, map[string]string{"D001": "Ko Aung"})
	if err != nil {
		t.Fatalf("ExportSalesInvoices: %v", err)
	}

	cases := []struct {
		sheet, cell, want string
	}{
		{invoiceSheet, "A1", "InvoiceNumber"},
		{invoiceSheet, "A2", "INV-1"},
		{invoiceSheet, "D2", "Ko Aung"},
		{invoiceSheet, "G2", "10350"},
		{detailSheet, "C2", "STK001"},
		{detailSheet, "E2", "5"},
		{detailSheet, "J2", "9000"},
	}
	for _, tc := range cases {
		got, err := f.GetCellValue(tc.sheet, tc.cell)
		if err != nil {
			t.Fatalf("GetCellValue %s!%s: %v", tc.sheet, tc.cell, err)
		}
		if got != tc.want {
			t.Fatalf("%s!%s=%q want %q", tc.sheet, tc.cell, got, tc.want)
		}
	}
}

func TestExportDebtorStatementClosingRow(t *testing.T) {
	debtor := &models.Debtor{Code: "D001", Name: "Ko Aung", Balance: decimal.NewFromInt(10350)}
	rows := []*models.DebtorTransaction{
		{TransactionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ReferenceNumber: "INV-1", Amount: decimal.NewFromInt(10350), RunningBalance: decimal.NewFromInt(10350)},
	}
	f, err := ExportDebtorStatement(debtor, rows)
	if err != nil {
		t.Fatalf("ExportDebtorStatement: %v", err)
	}
	if got, _ := f.GetCellValue(statementSheet, "B3"); got != "INV-1" {
		t.Fatalf("B3=%q", got)
	}
	if got, _ := f.GetCellValue(statementSheet, "A4"); got != "Closing balance" {
		t.Fatalf("A4=%q", got)
	}
	if got, _ := f.GetCellValue(statementSheet, "D4"); got != "10350" {
		t.Fatalf("D4=%q", got)
	}
}
