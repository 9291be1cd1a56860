package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/pkg/config"
)

// Rules are the storefront's tax and delivery parameters.
type Rules struct {
	TaxRate               decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

// DefaultRules are 8% tax and a 23.00 delivery fee waived above 199.00.
func DefaultRules() Rules {
	return Rules{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeDeliveryThreshold: decimal.NewFromInt(199),
		DeliveryFee:           decimal.NewFromInt(23),
	}
}

// RulesFromConfig maps configured pricing onto Rules.
func RulesFromConfig(cfg config.PricingConfig) Rules {
	return Rules{
		TaxRate:               cfg.TaxRate,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		DeliveryFee:           cfg.DeliveryFee,
	}
}

// Breakdown is the derived cost of a cart. Values are exact; use Display for
// presentation.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

// Display is a Breakdown rounded to two decimals.
type Display struct {
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	DeliveryFee string `json:"delivery_fee"`
	GrandTotal  string `json:"grand_total"`
}

func (b Breakdown) Display() Display {
	return Display{
		Subtotal:    b.Subtotal.StringFixed(2),
		Tax:         b.Tax.StringFixed(2),
		DeliveryFee: b.DeliveryFee.StringFixed(2),
		GrandTotal:  b.GrandTotal.StringFixed(2),
	}
}

// Engine prices cart snapshots.
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Price derives the breakdown for snapshot. An empty cart prices to zero,
// with no delivery fee.
func (e *Engine) Price(snapshot cart.Snapshot) Breakdown {
	if snapshot.IsEmpty() {
		return Breakdown{
			Subtotal:    decimal.Zero,
			Tax:         decimal.Zero,
			DeliveryFee: decimal.Zero,
			GrandTotal:  decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, item := range snapshot.Items() {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(e.rules.TaxRate)
	fee := e.rules.DeliveryFee
	if subtotal.GreaterThan(e.rules.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}
	return Breakdown{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		GrandTotal:  subtotal.Add(tax).Add(fee),
	}
}
