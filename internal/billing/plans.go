// Package billing runs the merchant's platform subscription: hosted checkout
// for paid plans and the lifecycle driven by platform gateway events.
package billing

import "strings"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan accepts any known plan, case-insensitively.
func ParsePlan(s string) (Plan, bool) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return p, true
	}
	return "", false
}

// Purchasable reports whether the plan can be bought through self-serve checkout.
func (p Plan) Purchasable() bool {
	return p == PlanStarter || p == PlanPro
}

type Status string

const (
	StatusActive     Status = "active"
	StatusTrialing   Status = "trialing"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusIncomplete Status = "incomplete"
	StatusUnpaid     Status = "unpaid"
)

var statuses = []Status{StatusActive, StatusTrialing, StatusPastDue, StatusCanceled, StatusIncomplete, StatusUnpaid}

func parseStatus(s string) (Status, bool) {
	for _, st := range statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// gatewayStatus maps a gateway subscription status into the local set.
func gatewayStatus(s string) (Status, bool) {
	if st, ok := parseStatus(s); ok {
		return st, true
	}
	switch s {
	case "incomplete_expired":
		return StatusCanceled, true
	case "paused":
		return StatusUnpaid, true
	}
	return "", false
}

// Catalog maps purchasable plans to gateway price ids.
type Catalog struct {
	prices map[Plan]string
}

// NewCatalog builds a catalog from plan name -> price id pairs. Unknown plan
// names and empty ids are skipped.
func NewCatalog(prices map[string]string) Catalog {
	c := Catalog{prices: make(map[Plan]string, len(prices))}
	for name, price := range prices {
		plan, ok := ParsePlan(name)
		if !ok || strings.TrimSpace(price) == "" {
			continue
		}
		c.prices[plan] = strings.TrimSpace(price)
	}
	return c
}

func (c Catalog) PriceFor(p Plan) (string, bool) {
	price, ok := c.prices[p]
	return price, ok
}

// PlanFor reverses PriceFor.
func (c Catalog) PlanFor(priceID string) (Plan, bool) {
	for plan, price := range c.prices {
		if price == priceID {
			return plan, true
		}
	}
	return "", false
}
