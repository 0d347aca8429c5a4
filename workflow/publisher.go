package workflow

import (
	"context"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/sirupsen/logrus"
)

func NewInvoicePostedMessage(ctx context.Context, inv *models.SalesInvoice) config.InvoicePostedMessage {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	return config.InvoicePostedMessage{
		InvoiceId:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		DebtorCode:    inv.DebtorCode,
		InvoiceDate:   inv.InvoiceDate,
		SubTotal:      inv.SubTotal.String(),
		TaxAmount:     inv.TaxAmount.String(),
		TotalCost:     inv.TotalCost.String(),
		CorrelationId: correlationId,
	}
}

// PublishOnCommit returns a hook for InvoiceStore.OnCommitted. Publish
// failures are logged only; the invoice is already committed and the daily
// summary can be rebuilt.
func PublishOnCommit(logger *logrus.Logger, publish func(context.Context, config.InvoicePostedMessage) (string, error)) func(context.Context, *models.SalesInvoice) {
	return func(ctx context.Context, inv *models.SalesInvoice) {
		msg := NewInvoicePostedMessage(ctx, inv)
		id, err := publish(ctx, msg)
		if err != nil {
			config.LogError(logger, "publisher.go", "PublishOnCommit", "publishing invoice posted", msg, err)
			return
		}
		logger.WithFields(logrus.Fields{
			"invoice_number": inv.InvoiceNumber,
			"message_id":     id,
		}).Debug("invoice posted event published")
	}
}
