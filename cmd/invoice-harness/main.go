package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/invoicing"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/sirupsen/logrus"
)

// invoice-harness drives one invoice session against the configured database
// and prints the draft after every step. Run seed-ledger first.
//
// Example:
//	go run ./cmd/invoice-harness --stock=STK001 --debtor=D001 --qty=2,3,6 --confirm
func main() {
	var (
		stockCode  = flag.String("stock", "STK001", "stock code to add")
		debtorCode = flag.String("debtor", "D001", "debtor code")
		qtyList    = flag.String("qty", "2,3,6", "comma separated quantities, added one by one")
		discount   = flag.String("discount", "0", "discount percent for every add")
		confirm    = flag.Bool("confirm", false, "confirm the invoice after the adds")
		clerk      = flag.String("clerk", "invoice-harness", "clerk name recorded on the invoice")
	)
	flag.Parse()

	disc, err := utils.ParseDecimal(*discount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --discount: %v\n", err)
		os.Exit(2)
	}
	qtys, err := parseQuantities(*qtyList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --qty: %v\n", err)
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	logger := config.GetLogger()
	logger.SetLevel(logrus.InfoLevel)

	ctx := utils.SetClerkInContext(context.Background(), &utils.JwtCustomClaim{Name: *clerk, Role: "harness"})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	store := models.NewInvoiceStore(config.GetDB())
	session, err := invoicing.NewSession(ctx, "", store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new session: %v\n", err)
		os.Exit(1)
	}
	session.OnChange(printSnapshot)

	debtor, err := store.LookupDebtor(ctx, *debtorCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debtor %s: %v\n", *debtorCode, err)
		os.Exit(1)
	}
	session.SelectDebtor(*debtor)

	for _, q := range qtys {
		stock, err := store.LookupStock(ctx, *stockCode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stock %s: %v\n", *stockCode, err)
			os.Exit(1)
		}
		fmt.Printf("> add %s x%d @ %s%%\n", *stockCode, q, disc)
		_ = session.AddLine(*stock, q, disc)
	}

	if !*confirm {
		return
	}
	fmt.Println("> confirm")
	for _, code := range session.StockCodes() {
		if stock, err := store.LookupStock(ctx, code); err == nil {
			session.RefreshStock(*stock)
		}
	}
	posted, err := session.Confirm(ctx)
	if err != nil {
		os.Exit(1)
	}
	fmt.Printf("posted %s: subtotal=%s tax=%s total=%s\n",
		posted.InvoiceNumber, posted.SubTotal, posted.TaxAmount, posted.TotalAmount)
}

func printSnapshot(s invoicing.Snapshot) {
	for _, l := range s.Lines {
		fmt.Printf("  line %d %s qty=%d disc=%s%% total=%s\n", l.ID, l.Stock.Code, l.Qty, l.DiscountPercent, l.LineTotal)
	}
	fmt.Printf("  subtotal=%s tax=%s grand=%s next=%d\n", s.Totals.SubTotal, s.Totals.Tax, s.Totals.GrandTotal, s.NextInvoiceNumber)
	if s.Message != nil {
		fmt.Printf("  [%s] %s\n", s.Message.Kind, s.Message.Text)
	}
}

func parseQuantities(csv string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", part)
		}
		out = append(out, n)
	}
	return out, nil
}
