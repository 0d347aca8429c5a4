package config

import (
	"context"
	"testing"

	"github.com/mmdatafocus/retail_ledger/appctx"
)

func TestBlockPostedWrite(t *testing.T) {
	bypass := appctx.Set(context.Background(), appctx.ContextKeyAllowPostedEdit, true)

	cases := []struct {
		name  string
		ctx   context.Context
		table string
		want  bool
	}{
		{"header", context.Background(), "sales_invoices", true},
		{"detail", context.Background(), "sales_invoice_details", true},
		{"stock is mutable", context.Background(), "stock_items", false},
		{"debtor is mutable", context.Background(), "debtors", false},
		{"bypass", bypass, "sales_invoices", false},
		{"nil context", nil, "sales_invoices", true},
	}
	for _, tc := range cases {
		if got := blockPostedWrite(tc.ctx, tc.table); got != tc.want {
			t.Fatalf("%s: blockPostedWrite(%q)=%v want %v", tc.name, tc.table, got, tc.want)
		}
	}
}

func TestBackoffCaps(t *testing.T) {
	if got := backoff(1).Seconds(); got != 2 {
		t.Fatalf("backoff(1)=%vs want 2s", got)
	}
	if got := backoff(9).Seconds(); got != 30 {
		t.Fatalf("backoff(9)=%vs want 30s", got)
	}
}
