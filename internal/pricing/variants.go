package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Variant is one packaging/quantity configuration of a product. Nil fields
// and absent prices inherit the product's defaults.
type Variant struct {
	Name            string
	Quantity        *int
	TotalCost       *SourceAmount
	TargetMargin    *float64
	ManualPrice     OptionalPrice
	CompetitorPrice OptionalPrice
}

// ProductDefaults are the product-level values a variant falls back to.
type ProductDefaults struct {
	Name            string
	UnitCost        SourceAmount
	UnitWeightKg    float64
	Quantity        int
	TargetMargin    float64
	AdFraction      float64
	ManualPrice     OptionalPrice
	CompetitorPrice OptionalPrice
}

// VariantReport is the evaluation of one variant of a product.
type VariantReport struct {
	Index  int          `json:"index"`
	Name   string       `json:"name"`
	Inputs CostInputs   `json:"inputs"`
	Report ProfitReport `json:"report"`
}

// Label is the 1-based display label of the variant ("#1", "#2", ...).
func (r VariantReport) Label() string {
	return fmt.Sprintf("#%d", r.Index+1)
}

// DefaultVariant is the single variant synthesized for a product that has
// none: the product's quantity at its unit cost and margin, with no manual
// or competitor price.
func DefaultVariant(p ProductDefaults) Variant {
	qty := p.quantity()
	cost := p.UnitCost * SourceAmount(qty)
	margin := p.TargetMargin
	return Variant{
		Name:            variantName(qty),
		Quantity:        &qty,
		TotalCost:       &cost,
		TargetMargin:    &margin,
		ManualPrice:     ZeroPrice(),
		CompetitorPrice: ZeroPrice(),
	}
}

// SeedVariant is the first variant stored for a newly created product. It
// is DefaultVariant carrying the product's manual and competitor prices.
func SeedVariant(p ProductDefaults) Variant {
	v := DefaultVariant(p)
	v.ManualPrice = p.ManualPrice
	v.CompetitorPrice = p.CompetitorPrice
	return v
}

// Resolve fills every unset field of v from the product defaults. A price
// is inherited only when it is NoPrice; ZeroPrice stays "no price".
func (p ProductDefaults) Resolve(v Variant) Variant {
	qty := p.quantity()
	if v.Quantity != nil {
		qty = *v.Quantity
	}
	cost := p.UnitCost * SourceAmount(qty)
	if v.TotalCost != nil {
		cost = *v.TotalCost
	}
	margin := p.TargetMargin
	if v.TargetMargin != nil {
		margin = *v.TargetMargin
	}

	out := Variant{
		Name:            strings.TrimSpace(v.Name),
		Quantity:        &qty,
		TotalCost:       &cost,
		TargetMargin:    &margin,
		ManualPrice:     v.ManualPrice,
		CompetitorPrice: v.CompetitorPrice,
	}
	if out.Name == "" {
		out.Name = variantName(qty)
	}
	if !out.ManualPrice.IsSet() {
		out.ManualPrice = p.ManualPrice
	}
	if !out.CompetitorPrice.IsSet() {
		out.CompetitorPrice = p.CompetitorPrice
	}
	return out
}

// ResolveAll resolves every variant, so that the stored form no longer
// depends on the product defaults.
func (p ProductDefaults) ResolveAll(variants []Variant) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		out[i] = p.Resolve(v)
	}
	return out
}

// Inputs builds the engine inputs of a variant under the given settings.
func (p ProductDefaults) Inputs(v Variant, s Settings) CostInputs {
	r := p.Resolve(v)

	var unit SourceAmount
	if *r.Quantity > 0 {
		unit = *r.TotalCost / SourceAmount(*r.Quantity)
	}

	return CostInputs{
		UnitCost:        unit,
		Quantity:        *r.Quantity,
		UnitWeightKg:    p.UnitWeightKg,
		DomesticFee:     s.DomesticFee,
		TargetMargin:    *r.TargetMargin,
		AdFraction:      p.AdFraction,
		ExchangeRate:    s.ExchangeRate,
		AirChannel:      s.AirChannel,
		ManualPrice:     r.ManualPrice,
		CompetitorPrice: r.CompetitorPrice,
	}
}

func (p ProductDefaults) quantity() int {
	if p.Quantity < 1 {
		return 1
	}
	return p.Quantity
}

func variantName(qty int) string {
	if qty == 1 {
		return "1 pc"
	}
	return fmt.Sprintf("%d pcs", qty)
}

// EvaluateProduct evaluates every variant of a product, one report per
// variant in input order. A product without variants is evaluated as its
// DefaultVariant. Variants are independent and are evaluated concurrently.
func EvaluateProduct(variants []Variant, p ProductDefaults, s Settings) ([]VariantReport, error) {
	if len(variants) == 0 {
		variants = []Variant{DefaultVariant(p)}
	}

	reports := make([]VariantReport, len(variants))
	var g errgroup.Group
	for i, v := range variants {
		g.Go(func() error {
			in := p.Inputs(v, s)
			if err := in.Validate(); err != nil {
				return fmt.Errorf("variant #%d: %w", i+1, err)
			}
			report, err := Evaluate(in, s.Fees)
			if err != nil {
				return fmt.Errorf("variant #%d: %w", i+1, err)
			}
			reports[i] = VariantReport{
				Index:  i,
				Name:   p.Resolve(v).Name,
				Inputs: in,
				Report: report,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

// DecodeWarning reports persisted variant data that could not be parsed.
// It is not fatal: the decoder returns an empty variant set alongside it.
type DecodeWarning struct {
	Raw string
	Err error
}

func (w *DecodeWarning) Error() string {
	return fmt.Sprintf("ignoring malformed variant data: %v", w.Err)
}

func (w *DecodeWarning) Unwrap() error {
	return w.Err
}

type wireVariant struct {
	Name       string   `json:"name"`
	Qty        *float64 `json:"qty,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	Profit     *float64 `json:"profit,omitempty"`
	FixedPrice *float64 `json:"fixed_price"`
	CompPrice  *float64 `json:"comp_price"`
}

// wirePrice decodes a persisted price. A missing field inherits the
// product's price; a stored value, 0 included, is the variant's own.
func wirePrice(v *float64) OptionalPrice {
	switch {
	case v == nil:
		return NoPrice()
	case *v > 0:
		return SomePrice(TargetAmount(*v))
	default:
		return ZeroPrice()
	}
}

// MarshalJSON encodes the variant in the persisted wire format.
func (v Variant) MarshalJSON() ([]byte, error) {
	fixed, comp := v.ManualPrice.Wire(), v.CompetitorPrice.Wire()
	w := wireVariant{
		Name:       v.Name,
		FixedPrice: &fixed,
		CompPrice:  &comp,
	}
	if v.Quantity != nil {
		qty := float64(*v.Quantity)
		w.Qty = &qty
	}
	if v.TotalCost != nil {
		cost := float64(*v.TotalCost)
		w.Cost = &cost
	}
	if v.TargetMargin != nil {
		margin := *v.TargetMargin
		w.Profit = &margin
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the persisted wire format. A fixed_price or
// comp_price of 0 means the variant has no such price.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var w wireVariant
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Variant{
		Name:            w.Name,
		ManualPrice:     wirePrice(w.FixedPrice),
		CompetitorPrice: wirePrice(w.CompPrice),
	}
	if w.Qty != nil {
		if *w.Qty != math.Trunc(*w.Qty) {
			return fmt.Errorf("qty %v is not a whole number", *w.Qty)
		}
		qty := int(*w.Qty)
		out.Quantity = &qty
	}
	if w.Cost != nil {
		cost := SourceAmount(*w.Cost)
		out.TotalCost = &cost
	}
	if w.Profit != nil {
		margin := *w.Profit
		out.TargetMargin = &margin
	}

	*v = out
	return nil
}

// DecodeVariants parses the persisted variant array. Blank input and
// "null" decode to an empty set. Malformed input decodes to an empty set
// and a *DecodeWarning.
func DecodeVariants(raw string) ([]Variant, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var variants []Variant
	if err := json.Unmarshal([]byte(trimmed), &variants); err != nil {
		return nil, &DecodeWarning{Raw: raw, Err: err}
	}
	return variants, nil
}

// EncodeVariants renders variants in the persisted wire format.
func EncodeVariants(variants []Variant) (string, error) {
	if variants == nil {
		variants = []Variant{}
	}
	b, err := json.Marshal(variants)
	if err != nil {
		return "", fmt.Errorf("encode variants: %w", err)
	}
	return string(b), nil
}
