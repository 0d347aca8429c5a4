package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/mmdatafocus/retail_ledger/workflow"
)

// backfill-daily-summary rebuilds daily_sales_summaries from posted invoices,
// e.g. after events were lost while PUBLISH_INVOICE_EVENTS was off.
func main() {
	today := time.Now().UTC().Format(time.DateOnly)
	from := flag.String("from", "", "start date (YYYY-MM-DD), required")
	to := flag.String("to", today, "end date, inclusive (YYYY-MM-DD)")
	flag.Parse()

	if *from == "" {
		fmt.Fprintln(os.Stderr, "--from is required")
		flag.Usage()
		os.Exit(2)
	}
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
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	release, err := utils.JobLock(ctx, "Job", "daily-summary-rebuild", 30*time.Minute, "backfill-daily-summary", "main")
	if errors.Is(err, utils.ErrorLockNotObtained) {
		fmt.Fprintln(os.Stderr, "another rebuild is running; try again later")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lock: %v\n", err)
		os.Exit(1)
	}
	defer release()

	fmt.Printf("Backfilling daily_sales_summaries from=%s to=%s\n", *from, *to)
	n, err := workflow.RebuildDailySummary(ctx, db, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("done: %d days with sales\n", n)
}
