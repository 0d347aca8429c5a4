package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/retail_ledger/appctx"
	"gorm.io/gorm"
)

var ErrPostedImmutable = errors.New("posted invoices cannot be changed")

// immutableTables are written once by the invoice commit and never touched again.
var immutableTables = map[string]bool{
	"sales_invoices":        true,
	"sales_invoice_details": true,
}

// PostedGuardPlugin rejects UPDATE and DELETE statements against posted invoice tables.
//
// NOTE:
// - Raw SQL is not inspected.
// - Ops tools may bypass via appctx.ContextKeyAllowPostedEdit.
type PostedGuardPlugin struct{}

func NewPostedGuardPlugin() *PostedGuardPlugin { return &PostedGuardPlugin{} }

func (p *PostedGuardPlugin) Name() string { return "posted_guard" }

func (p *PostedGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Update().Before("gorm:update").Register("posted_guard:update", postedGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("posted_guard:delete", postedGuardCallback); err != nil {
		return err
	}
	return nil
}

func postedGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	if blockPostedWrite(db.Statement.Context, db.Statement.Table) {
		_ = db.AddError(fmt.Errorf("%w (table %s)", ErrPostedImmutable, db.Statement.Table))
	}
}

func blockPostedWrite(ctx context.Context, table string) bool {
	if !immutableTables[table] {
		return false
	}
	if ctx != nil {
		if v, ok := appctx.GetBool(ctx, appctx.ContextKeyAllowPostedEdit); ok && v {
			return false
		}
	}
	return true
}
