package pricing

import (
	"fmt"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// DefaultTaxBps is the flat 9% tax rate.
const DefaultTaxBps = 900

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty          int
	UnitPrice    Money
	UnitDiscount Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Total         Money `json:"total"`
	Discount      Money `json:"discount"`
	AfterDiscount Money `json:"afterDiscount"`
	Tax           Money `json:"tax"`
	Shipping      Money `json:"shipping"`
	Payable       Money `json:"payable"`
}

// Compute calculates order totals. Negative quantities, prices, discounts
// and shipping count as zero, so the function has no error conditions.
func Compute(items []Item, taxBps int, shipping Money) Summary {
	var total, discount Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		qty := Money(it.Qty)
		total += qty * nonNegative(it.UnitPrice)
		discount += qty * nonNegative(it.UnitDiscount)
	}
	if discount > total {
		discount = total
	}
	after := total - discount
	tax := applyBps(after, taxBps)
	shipping = nonNegative(shipping)
	return Summary{
		Total:         total,
		Discount:      discount,
		AfterDiscount: after,
		Tax:           tax,
		Shipping:      shipping,
		Payable:       after + tax + shipping,
	}
}

// WholeUnits rounds the payable half up to a multiple of 100 minor units for
// currencies charged without a minor unit. The difference is absorbed by tax,
// so Payable still equals AfterDiscount + Tax + Shipping; tax never goes
// negative.
func WholeUnits(s Summary) Summary {
	payable := (s.Payable + 50) / 100 * 100
	tax := payable - s.AfterDiscount - s.Shipping
	if tax < 0 {
		tax = 0
	}
	s.Tax = tax
	s.Payable = s.AfterDiscount + tax + s.Shipping
	return s
}

// applyBps rounds half up in integer arithmetic.
func applyBps(amount Money, bps int) Money {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*Money(bps) + 5000) / 10000
}

func nonNegative(v Money) Money {
	if v < 0 {
		return 0
	}
	return v
}

// Format renders minor units with two decimals, e.g. 9810 -> "98.10".
func Format(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}
