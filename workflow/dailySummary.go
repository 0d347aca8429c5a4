package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dailySummaryHandler = "DailySalesSummary"

var ErrInvalidInvoicePostedMessage = errors.New("invalid invoice posted message")

// DecodeInvoicePosted parses and checks a message body.
func DecodeInvoicePosted(data []byte) (config.InvoicePostedMessage, error) {
	var m config.InvoicePostedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrInvalidInvoicePostedMessage, err)
	}
	if m.InvoiceNumber == "" || m.InvoiceDate.IsZero() {
		return m, fmt.Errorf("%w: invoice number and date are required", ErrInvalidInvoicePostedMessage)
	}
	for _, v := range []string{m.SubTotal, m.TaxAmount, m.TotalCost} {
		if _, err := utils.ParseDecimal(v); err != nil {
			return m, fmt.Errorf("%w: %v", ErrInvalidInvoicePostedMessage, err)
		}
	}
	return m, nil
}

// summaryDate is the calendar day an invoice is reported under.
func summaryDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProcessInvoicePosted adds one posted invoice to its day's summary. A
// message id already handled is skipped.
func ProcessInvoicePosted(ctx context.Context, logger *logrus.Logger, messageId string, m config.InvoicePostedMessage) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip, err := BeginIdempotency(tx, dailySummaryHandler, messageId)
		if err != nil {
			return err
		}
		if skip {
			logger.WithFields(logrus.Fields{
				"field":          "DailySummary",
				"message_id":     messageId,
				"invoice_number": m.InvoiceNumber,
			}).Info("duplicate invoice posted message skipped")
			return nil
		}

		if err := addToDailySummary(tx, m); err != nil {
			_ = MarkIdempotencyFailed(tx, dailySummaryHandler, messageId, err)
			return err
		}
		return MarkIdempotencySucceeded(tx, dailySummaryHandler, messageId)
	})
}

func addToDailySummary(tx *gorm.DB, m config.InvoicePostedMessage) error {
	sub, _ := utils.ParseDecimal(m.SubTotal)
	tax, _ := utils.ParseDecimal(m.TaxAmount)
	cost, _ := utils.ParseDecimal(m.TotalCost)

	row := models.DailySalesSummary{
		SummaryDate:  summaryDate(m.InvoiceDate),
		InvoiceCount: 1,
		SubTotal:     sub,
		TaxAmount:    tax,
		TotalCost:    cost,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "summary_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"invoice_count": gorm.Expr("invoice_count + ?", 1),
			"sub_total":     gorm.Expr("sub_total + ?", sub),
			"tax_amount":    gorm.Expr("tax_amount + ?", tax),
			"total_cost":    gorm.Expr("total_cost + ?", cost),
		}),
	}).Create(&row).Error
}

type dailyTotals struct {
	SummaryDate  time.Time
	InvoiceCount int
	SubTotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	TotalCost    decimal.Decimal
}

// RebuildDailySummary recomputes summaries for [from, to] from posted invoices,
// replacing whatever the event consumer accumulated for those days.
func RebuildDailySummary(ctx context.Context, db *gorm.DB, from, to time.Time) (int, error) {
	from, to = summaryDate(from), summaryDate(to).AddDate(0, 0, 1)

	var rows []dailyTotals
	err := db.WithContext(ctx).Model(&models.SalesInvoice{}).
		Select("DATE(invoice_date) AS summary_date, COUNT(*) AS invoice_count, " +
			"SUM(sub_total) AS sub_total, SUM(tax_amount) AS tax_amount, SUM(total_cost) AS total_cost").
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Group("DATE(invoice_date)").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("summary_date >= ? AND summary_date < ?", from, to).
			Delete(&models.DailySalesSummary{}).Error; err != nil {
			return err
		}
		for _, r := range rows {
			summary := models.DailySalesSummary{
				SummaryDate:  summaryDate(r.SummaryDate),
				InvoiceCount: r.InvoiceCount,
				SubTotal:     r.SubTotal,
				TaxAmount:    r.TaxAmount,
				TotalCost:    r.TotalCost,
			}
			if err := tx.Create(&summary).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func ListDailySummaries(ctx context.Context, db *gorm.DB, from, to time.Time) ([]*models.DailySalesSummary, error) {
	var results []*models.DailySalesSummary
	err := db.WithContext(ctx).
		Where("summary_date >= ? AND summary_date <= ?", summaryDate(from), summaryDate(to)).
		Order("summary_date").
		Find(&results).Error
	return results, err
}
