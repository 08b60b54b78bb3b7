// invoice-overdue-mark flips Sent and Partial Paid invoices past their due
// date to Overdue. Intended to run as a scheduled one-shot job.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/invoice-overdue-mark
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/models"
)

func main() {
	asOfFlag := flag.String("as-of", "", "Optional: cutoff date (YYYY-MM-DD). Defaults to now.")
	flag.Parse()

	asOf := time.Now()
	if *asOfFlag != "" {
		t, err := time.Parse("2006-01-02", *asOfFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of: %v\n", err)
			os.Exit(1)
		}
		asOf = t
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	marked, err := models.MarkOverdueInvoices(ctx, asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mark overdue invoices: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Marked %d invoice(s) overdue (as of %s)\n", marked, asOf.Format("2006-01-02"))
}
