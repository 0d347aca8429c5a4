package utils

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "P"
	DiscountTypeAmount  DiscountType = "A"
)

var (
	decimalOneHundred = decimal.NewFromInt(100)

	// VatRate is the fixed sales tax percent applied to every invoice subtotal.
	VatRate = decimal.NewFromInt(15)
)

// Tax-exclusive: (totalAmount * taxRate) / 100
func CalculateTaxAmount(totalAmount decimal.Decimal, taxRate decimal.Decimal) decimal.Decimal {
	if totalAmount.IsZero() || taxRate.IsZero() {
		return decimal.Zero
	}
	return totalAmount.Mul(taxRate).DivRound(decimalOneHundred, 6)
}

func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	if !discount.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	if discountType == DiscountTypePercent {
		return subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
	}
	return discount
}

// CalculateLineAmounts returns the discount amount and the net line total
// for qty units at unitPrice with a percent discount.
func CalculateLineAmounts(unitPrice decimal.Decimal, qty int, discountPercent decimal.Decimal) (discountAmount decimal.Decimal, lineTotal decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	discountAmount = CalculateDiscountAmount(gross, discountPercent, DiscountTypePercent)
	return discountAmount, gross.Sub(discountAmount)
}
