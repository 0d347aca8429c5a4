package invoicing

import (
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
)

// discountTolerance is how close two discount percents must be to count as equal.
var discountTolerance = decimal.RequireFromString("0.001")

var hundred = decimal.NewFromInt(100)

// DraftLine is one entry of the invoice being built.
type DraftLine struct {
	ID              int              `json:"id"`
	Stock           models.StockItem `json:"stock"`
	Qty             int              `json:"qty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	LineTotal       decimal.Decimal  `json:"line_total"`
}

func (l *DraftLine) reprice() {
	l.DiscountAmount, l.LineTotal = utils.CalculateLineAmounts(l.Stock.UnitSellingPrice, l.Qty, l.DiscountPercent)
}

func (l *DraftLine) matches(code string, discountPercent decimal.Decimal) bool {
	return l.Stock.Code == code && discountsEqual(l.DiscountPercent, discountPercent)
}

func discountsEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(discountTolerance)
}

func validDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}

// Totals are derived from the line list alone.
type Totals struct {
	SubTotal   decimal.Decimal `json:"sub_total"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func computeTotals(lines []*DraftLine) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.LineTotal)
	}
	tax := utils.CalculateTaxAmount(sub, utils.VatRate)
	return Totals{SubTotal: sub, Tax: tax, GrandTotal: sub.Add(tax)}
}
