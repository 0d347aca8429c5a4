// export-invoices writes posted invoices for a date range to an xlsx file and
// optionally uploads it to GCS_BUCKET.
//
// Usage:
//   go run ./cmd/export-invoices --from=2026-03-01 --to=2026-03-31 --out=march.xlsx [--upload]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/models/reports"
	"github.com/mmdatafocus/retail_ledger/utils"
)

func main() {
	today := time.Now().UTC().Format(time.DateOnly)
	from := flag.String("from", today, "start date (YYYY-MM-DD)")
	to := flag.String("to", today, "end date, inclusive (YYYY-MM-DD)")
	out := flag.String("out", "invoices.xlsx", "output file")
	upload := flag.Bool("upload", false, "also upload the file to GCS_BUCKET under exports/")
	flag.Parse()

	start, err := time.Parse(time.DateOnly, *from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --from: %v\n", err)
		os.Exit(2)
	}
	end, err := time.Parse(time.DateOnly, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --to: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	store := models.NewInvoiceStore(config.GetDB())

	invoices, err := store.ListSalesInvoices(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "list invoices: %v\n", err)
		os.Exit(1)
	}
	debtors, err := store.ListDebtors(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list debtors: %v\n", err)
		os.Exit(1)
	}
	names := make(map[string]string, len(debtors))
	for _, d := range debtors {
		names[d.Code] = d.Name
	}

	f, err := reports.ExportSalesInvoices(invoices, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "save %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d invoices to %s\n", len(invoices), *out)

	if !*upload {
		return
	}
	file, err := os.Open(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reopen %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer file.Close()
	uri, err := utils.UploadFileToGCS(ctx, "exports/"+filepath.Base(*out), utils.XlsxContentType, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upload: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("uploaded", uri)
}
