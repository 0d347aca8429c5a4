package invoicing

import (
	"context"

	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("retail_ledger/invoicing")

// Confirm re-checks the draft and hands header and details to the store as
// one unit of work. The commit ignores cancellation of ctx: once started it
// runs to an answer. On failure the draft is left as it was.
func (s *Session) Confirm(ctx context.Context) (*models.SalesInvoice, error) {
	var posted *models.SalesInvoice
	err := s.apply(func() error {
		var err error
		posted, err = s.confirm(ctx)
		return err
	})
	return posted, err
}

func (s *Session) confirm(ctx context.Context) (*models.SalesInvoice, error) {
	if s.processed {
		return nil, s.fail(ErrAlreadyConfirmed, "invoice %s is already saved, start a new invoice", s.posted.InvoiceNumber)
	}
	if s.debtor == nil {
		return nil, s.fail(ErrNoDebtor, "select a debtor")
	}
	if len(s.lines) == 0 {
		return nil, s.fail(ErrEmptyInvoice, "invoice is empty")
	}
	if err := s.checkStock(); err != nil {
		return nil, err
	}

	header, details := s.buildInvoice(ctx)

	ctx, span := tracer.Start(ctx, "invoicing.Confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("session", s.id),
		attribute.String("debtor_code", header.DebtorCode),
		attribute.Int("lines", len(details)),
	)

	posted, err := s.store.CommitInvoice(context.WithoutCancel(ctx), header, details)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		s.logger.WithError(err).Error("commit invoice")
		msg := "could not save the invoice, please try again"
		s.message = &Message{Kind: MessageError, Text: msg}
		return nil, &ValidationError{Err: ErrCommitFailed, Message: msg}
	}
	span.SetAttributes(attribute.String("invoice_number", posted.InvoiceNumber))

	s.processed = true
	s.posted = posted
	s.message = &Message{Kind: MessageInfo, Text: "invoice " + posted.InvoiceNumber + " saved"}
	s.logger.WithFields(logrus.Fields{
		"invoice_number": posted.InvoiceNumber,
		"debtor_code":    posted.DebtorCode,
		"total":          posted.TotalAmount.String(),
	}).Info("invoice confirmed")
	return posted, nil
}

// checkStock validates quantity per stock code across all lines; the first
// code over its on-hand quantity aborts.
func (s *Session) checkStock() error {
	required := make(map[string]int)
	var order []string
	for _, l := range s.lines {
		if _, seen := required[l.Stock.Code]; !seen {
			order = append(order, l.Stock.Code)
		}
		required[l.Stock.Code] = utils.AddQuantities(required[l.Stock.Code], l.Qty)
	}
	for _, code := range order {
		stock := s.stock[code]
		if required[code] > stock.QuantityOnHand {
			return s.fail(ErrInsufficientStock,
				"not enough stock for %s (%s): required %d, available %d",
				code, stock.Description, required[code], stock.QuantityOnHand)
		}
	}
	return nil
}

func (s *Session) buildInvoice(ctx context.Context) (*models.SalesInvoice, []models.SalesInvoiceDetail) {
	totalCost := decimal.Zero
	details := make([]models.SalesInvoiceDetail, 0, len(s.lines))
	for i, l := range s.lines {
		totalCost = totalCost.Add(l.Stock.UnitCost.Mul(decimal.NewFromInt(int64(l.Qty))))
		details = append(details, models.SalesInvoiceDetail{
			LineNo:          i + 1,
			StockCode:       l.Stock.Code,
			Description:     l.Stock.Description,
			Qty:             l.Qty,
			UnitCost:        l.Stock.UnitCost,
			UnitSell:        l.Stock.UnitSellingPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			LineTotal:       l.LineTotal,
		})
	}

	clerk, _ := utils.GetClerkNameFromContext(ctx)
	header := &models.SalesInvoice{
		// number is assigned by the store
		SequenceNo:  0,
		ConfirmKey:  s.confirmKey,
		DebtorCode:  s.debtor.Code,
		InvoiceDate: s.now(),
		SubTotal:    s.totals.SubTotal,
		TaxAmount:   s.totals.Tax,
		TotalAmount: s.totals.GrandTotal,
		TotalCost:   totalCost,
		CreatedBy:   clerk,
	}
	return header, details
}
