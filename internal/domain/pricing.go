package domain

import (
	"github.com/shopspring/decimal"
)

const (
	InstallmentMonths = 24
	monthlyPaySuffix  = " sum / 24 months"
)

// DiscountedPrice applies a percent discount. A non-positive discount leaves the price untouched.
func DiscountedPrice(price, discount float64) float64 {
	if discount > 0 {
		return price * (1 - discount/100)
	}
	return price
}

// MonthlyPay spreads the discounted price over the installment period and renders it with one
// decimal digit, e.g. "41.7 sum / 24 months". It returns nil when there is nothing to pay.
//
// Rounding is half-to-even on the exact binary value of the float, so 0.25 renders as 0.2.
func MonthlyPay(discountedPrice float64) *string {
	if discountedPrice == 0 {
		return nil
	}
	payment := decimal.NewFromFloatWithExponent(discountedPrice/InstallmentMonths, -32)
	s := payment.RoundBank(1).StringFixed(1) + monthlyPaySuffix
	return &s
}

// AverageRating is the arithmetic mean of ratings, nil for an empty slice.
func AverageRating(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}
