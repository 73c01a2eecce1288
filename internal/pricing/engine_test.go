package pricing

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestComputeIsIdempotent(t *testing.T) {
	items := []LineItem{
		{ProductName: "Router", Quantity: 3, PricingMode: ModeDirect, ListPrice: 120.5, Discount: 10},
		{ProductName: "Install", Quantity: 1, PricingMode: ModeMargin, PurchasePrice: 80, Margin: 25},
	}
	tax := TaxConfig{GSTEnabled: true, OtherTaxes: []OtherTax{{Name: "Service", Percent: 5}}}

	first := Compute(items, tax)
	second := Compute(items, tax)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical totals, got %#v then %#v", first, second)
	}
}

func TestZeroValueLineContributesNothing(t *testing.T) {
	var it LineItem
	if got := LineTotal(it); got != 0 {
		t.Fatalf("expected zero line total, got %v", got)
	}
	totals := Compute([]LineItem{it}, TaxConfig{})
	if totals.Subtotal != 0 || totals.GrandTotal != 0 {
		t.Fatalf("expected zero totals, got %#v", totals)
	}
}

func TestMarginModeDerivesListPrice(t *testing.T) {
	it := LineItem{PricingMode: ModeMargin, PurchasePrice: 100, Margin: 20}
	if got := ResolveListPrice(it); got != 120 {
		t.Fatalf("expected derived list price 120, got %v", got)
	}
}

func TestMarginModeWithMissingInputsResolvesToZero(t *testing.T) {
	it := LineItem{PricingMode: ModeMargin}
	if got := ResolveListPrice(it); got != 0 {
		t.Fatalf("expected zero list price, got %v", got)
	}
}

func TestModeSwitchPreservesDirectPrice(t *testing.T) {
	it := LineItem{Quantity: 1, PricingMode: ModeDirect, ListPrice: 50}

	it.PricingMode = ModeMargin
	it.PurchasePrice = 40
	it.Margin = 10
	if got := ResolveListPrice(it); got != 44 {
		t.Fatalf("expected margin price 44, got %v", got)
	}

	it.PricingMode = ModeDirect
	if got := ResolveListPrice(it); got != 50 {
		t.Fatalf("expected original direct price 50 after switching back, got %v", got)
	}
}

func TestTaxesAreAdditiveAgainstSubtotal(t *testing.T) {
	items := []LineItem{{Quantity: 1, PricingMode: ModeDirect, ListPrice: 1000}}
	tax := TaxConfig{GSTEnabled: true, OtherTaxes: []OtherTax{{Name: "Service", Percent: 5}}}

	totals := Compute(items, tax)
	if totals.Subtotal != 1000 {
		t.Fatalf("expected subtotal 1000, got %v", totals.Subtotal)
	}
	if totals.GSTAmount != 180 {
		t.Fatalf("expected gst 180, got %v", totals.GSTAmount)
	}
	if len(totals.OtherTaxAmounts) != 1 || totals.OtherTaxAmounts[0].Name != "Service" || totals.OtherTaxAmounts[0].Amount != 50 {
		t.Fatalf("unexpected other tax amounts %#v", totals.OtherTaxAmounts)
	}
	if totals.OtherTaxTotal != 50 {
		t.Fatalf("expected other tax total 50, got %v", totals.OtherTaxTotal)
	}
	if totals.GrandTotal != 1230 {
		t.Fatalf("expected grand total 1230, got %v", totals.GrandTotal)
	}
}

func TestNegativeLineTotalPropagates(t *testing.T) {
	items := []LineItem{{Quantity: 1, PricingMode: ModeDirect, ListPrice: 10, Discount: 50}}

	if got := LineTotal(items[0]); got != -40 {
		t.Fatalf("expected line total -40, got %v", got)
	}
	totals := Compute(items, TaxConfig{})
	if totals.Subtotal != -40 || totals.GrandTotal != -40 {
		t.Fatalf("expected -40 to propagate unclamped, got %#v", totals)
	}
}

// Each line total is rounded before summation, so three lines of 33.333
// produce 99.99, not 100.00.
func TestLinesAreRoundedBeforeSummation(t *testing.T) {
	line := LineItem{Quantity: 1, PricingMode: ModeDirect, ListPrice: 33.333}
	totals := Compute([]LineItem{line, line, line}, TaxConfig{})
	if totals.Subtotal != 99.99 {
		t.Fatalf("expected subtotal 99.99, got %v", totals.Subtotal)
	}
	if totals.GrandTotal != 99.99 {
		t.Fatalf("expected grand total 99.99, got %v", totals.GrandTotal)
	}
}

func TestEmptyTaxConfigLeavesGrandTotalEqualToSubtotal(t *testing.T) {
	items := []LineItem{
		{Quantity: 2, PricingMode: ModeDirect, ListPrice: 19.99},
		{Quantity: 1, PricingMode: ModeMargin, PurchasePrice: 50, Margin: 10},
	}
	totals := Compute(items, TaxConfig{GSTEnabled: false, OtherTaxes: nil})
	if totals.GSTAmount != 0 || totals.OtherTaxTotal != 0 {
		t.Fatalf("expected no taxes, got %#v", totals)
	}
	if totals.GrandTotal != totals.Subtotal {
		t.Fatalf("expected grand total %v to equal subtotal %v", totals.GrandTotal, totals.Subtotal)
	}
}

func TestZeroPercentTaxContributesZeroWithoutError(t *testing.T) {
	items := []LineItem{{Quantity: 1, PricingMode: ModeDirect, ListPrice: 500}}
	tax := TaxConfig{OtherTaxes: []OtherTax{{Name: "", Percent: 0}, {Name: "Cess", Percent: 1}}}

	totals := Compute(items, tax)
	if len(totals.OtherTaxAmounts) != 2 {
		t.Fatalf("expected both taxes computed, got %#v", totals.OtherTaxAmounts)
	}
	if totals.OtherTaxAmounts[0].Amount != 0 {
		t.Fatalf("expected zero-percent tax amount 0, got %v", totals.OtherTaxAmounts[0].Amount)
	}
	if totals.OtherTaxAmounts[1].Amount != 5 {
		t.Fatalf("expected 1%% of 500 = 5, got %v", totals.OtherTaxAmounts[1].Amount)
	}
}

func TestComputeFromWireShapedJSON(t *testing.T) {
	payload := []byte(`{
		"products": [
			{"productName": "Firewall", "quantity": "2", "pricingMode": "direct", "listPrice": "150.00", "discount": null},
			{"productName": "Support", "quantity": 1, "pricingMode": "margin", "purchasePrice": 100, "margin": 20}
		],
		"isGstApplied": true,
		"otherTax": [{"tax": "Service", "percent": 5}]
	}`)
	var doc struct {
		Products []LineItem `json:"products"`
		TaxConfig
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	totals := Compute(doc.Products, doc.TaxConfig)
	if totals.Subtotal != 420 {
		t.Fatalf("expected subtotal 420, got %v", totals.Subtotal)
	}
	if totals.GSTAmount != 75.6 {
		t.Fatalf("expected gst 75.60, got %v", totals.GSTAmount)
	}
	if totals.GrandTotal != 516.6 {
		t.Fatalf("expected grand total 516.60, got %v", totals.GrandTotal)
	}
}
