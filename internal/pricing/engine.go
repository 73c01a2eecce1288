package pricing

// GSTPercent is the fixed GST rate applied when a document opts in. The
// rate is a constant of the engine, not a configuration knob.
const GSTPercent = 18.0

// Mode selects which input group drives a line's effective unit price.
type Mode string

const (
	// ModeDirect uses the caller supplied list price as-is.
	ModeDirect Mode = "direct"
	// ModeMargin derives the list price from purchase price plus markup.
	ModeMargin Mode = "margin"
)

// LineItem is one priceable row of a quote or purchase order. Both the
// direct and the margin input groups are always present; switching modes
// must not destroy the inactive group, so a user can toggle back and forth
// without re-entering values.
type LineItem struct {
	ProductName string `json:"productName"`
	Description string `json:"description,omitempty"`
	Quantity    Number `json:"quantity"`
	PricingMode Mode   `json:"pricingMode"`
	// ListPrice is the direct-mode unit price. In margin mode it is ignored
	// in favour of the derived price but the stored value survives.
	ListPrice     Number `json:"listPrice"`
	PurchasePrice Number `json:"purchasePrice"`
	Margin        Number `json:"margin"`
	// Discount is an absolute currency amount per line, not a percentage.
	Discount Number `json:"discount"`
}

// NewLineItem returns a line with the defaults a freshly added form row has.
func NewLineItem() LineItem {
	return LineItem{Quantity: 1, PricingMode: ModeDirect}
}

// ResolveListPrice returns the effective unit price for the line's active
// pricing mode. Margin mode derives purchase price plus percent markup;
// missing or malformed inputs contribute zero.
func ResolveListPrice(it LineItem) float64 {
	if it.PricingMode == ModeMargin {
		cost := it.PurchasePrice.Float64()
		return cost + cost*it.Margin.Float64()/100
	}
	return it.ListPrice.Float64()
}

// LineTotal computes quantity times the resolved unit price minus the line
// discount. A discount larger than the gross amount yields a negative
// total; the engine does not clamp.
func LineTotal(it LineItem) float64 {
	return it.Quantity.Float64()*ResolveListPrice(it) - it.Discount.Float64()
}

// OtherTax is one named percentage tax applied against the subtotal.
type OtherTax struct {
	Name    string `json:"tax"`
	Percent Number `json:"percent"`
}

// TaxConfig carries the GST toggle and the ordered list of additional
// taxes for a document. Each tax is computed independently against the
// same subtotal; taxes never compound.
type TaxConfig struct {
	GSTEnabled bool       `json:"isGstApplied"`
	OtherTaxes []OtherTax `json:"otherTax"`
}

// TaxAmount is the computed amount for one named tax.
type TaxAmount struct {
	Name   string  `json:"tax"`
	Amount float64 `json:"amount"`
}

// Totals is a pure projection of a line list plus a tax config. It is
// recomputed in full on every edit and never stored independently of its
// inputs.
type Totals struct {
	Subtotal        float64     `json:"subtotal"`
	GSTAmount       float64     `json:"gstAmount"`
	OtherTaxAmounts []TaxAmount `json:"otherTaxAmount"`
	OtherTaxTotal   float64     `json:"otherTaxTotal"`
	GrandTotal      float64     `json:"grandTotal"`
}

// Compute runs the full pricing pipeline: resolve each line, sum line
// totals, apply GST and the other taxes, and assemble the grand total.
//
// Rounding happens per step: every line total is rounded to two decimals
// before summation, and the subtotal, each tax amount and the grand total
// are rounded at the point they are produced. Summing rounded parts can
// therefore differ by a few cents from rounding a single final sum; that
// is the documented, tested behaviour.
func Compute(items []LineItem, tax TaxConfig) Totals {
	var sum float64
	for _, it := range items {
		sum += Round2(LineTotal(it))
	}
	subtotal := Round2(sum)

	var gst float64
	if tax.GSTEnabled {
		gst = Round2(subtotal * GSTPercent / 100)
	}

	amounts := make([]TaxAmount, 0, len(tax.OtherTaxes))
	var otherSum float64
	for _, t := range tax.OtherTaxes {
		amount := Round2(subtotal * t.Percent.Float64() / 100)
		amounts = append(amounts, TaxAmount{Name: t.Name, Amount: amount})
		otherSum += amount
	}
	otherTotal := Round2(otherSum)

	return Totals{
		Subtotal:        subtotal,
		GSTAmount:       gst,
		OtherTaxAmounts: amounts,
		OtherTaxTotal:   otherTotal,
		GrandTotal:      Round2(subtotal + gst + otherTotal),
	}
}
