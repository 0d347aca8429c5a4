package invoicing

import (
	"context"

	"github.com/mmdatafocus/retail_ledger/models"
)

// Store is the persistence the engine and its callers depend on.
// LookupStock and LookupDebtor return utils.ErrorRecordNotFound when absent;
// the Session never calls them itself.
type Store interface {
	NextInvoiceNumber(ctx context.Context) (int64, error)
	CommitInvoice(ctx context.Context, header *models.SalesInvoice, details []models.SalesInvoiceDetail) (*models.SalesInvoice, error)
	LookupStock(ctx context.Context, code string) (*models.StockItem, error)
	LookupDebtor(ctx context.Context, code string) (*models.Debtor, error)
}

var _ Store = (*models.InvoiceStore)(nil)
