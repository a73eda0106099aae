// Package catalog stores sourced products, their variants and the shared
// pricing settings, and evaluates stored products with the pricing engine.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/sourcing/internal/pricing"
	"github.com/Simplici0/sourcing/internal/validation"
)

// Dimensions is the packed size of one unit, in centimetres.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// String renders the dimensions as "LxWxH", or "" when unset.
func (d Dimensions) String() string {
	if d == (Dimensions{}) {
		return ""
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(d.Length) + "x" + f(d.Width) + "x" + f(d.Height)
}

// ParseDimensions parses "LxWxH". An empty string is the zero value.
func ParseDimensions(s string) (Dimensions, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Dimensions{}, nil
	}
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return Dimensions{}, fmt.Errorf("dimensions %q: want LxWxH", s)
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return Dimensions{}, fmt.Errorf("dimensions %q: bad value %q", s, p)
		}
		vals[i] = v
	}
	return Dimensions{Length: vals[0], Width: vals[1], Height: vals[2]}, nil
}

// Summary is the product-level snapshot taken from the first variant when a
// product is saved. Values are rounded to two decimals.
type Summary struct {
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	HardCost       decimal.Decimal `json:"hard_cost"`
}

// SummaryOf builds the snapshot of a report.
func SummaryOf(r pricing.ProfitReport) Summary {
	return Summary{
		SuggestedPrice: round2(float64(r.SuggestedPrice)),
		FinalPrice:     round2(float64(r.FinalPrice)),
		HardCost:       round2(float64(r.Air.HardCost)),
	}
}

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Product is one sourced item in the catalog.
type Product struct {
	ID              int64                 `json:"id"`
	Name            string                `json:"name" validate:"required,max=200"`
	UnitCost        float64               `json:"unit_cost" validate:"gte=0"`
	UnitWeightKg    float64               `json:"unit_weight_kg" validate:"gt=0"`
	Quantity        int                   `json:"quantity" validate:"gte=1"`
	TargetMargin    float64               `json:"target_margin" validate:"gte=0,lt=1"`
	AdFraction      float64               `json:"ad_fraction" validate:"gte=0,lt=1"`
	ManualPrice     pricing.OptionalPrice `json:"manual_price"`
	CompetitorPrice pricing.OptionalPrice `json:"competitor_price"`
	Dimensions      Dimensions            `json:"dimensions"`
	Copy            string                `json:"copy"`
	Note            string                `json:"note"`
	SourcingLink    string                `json:"sourcing_link" validate:"omitempty,url"`
	CompetitorLink  string                `json:"competitor_link" validate:"omitempty,url"`
	ImagePath       string                `json:"image_path"`
	Variants        []pricing.Variant     `json:"variants"`
	Summary         Summary               `json:"summary"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`

	// Warnings lists stored data that could not be read, such as a
	// malformed variant list. Read-only.
	Warnings []string `json:"warnings,omitempty"`

	variantsUnreadable bool
}

// Validate checks the product-level fields.
func (p Product) Validate() error {
	fields, err := validation.Fields(p)
	if err != nil {
		return err
	}
	if v, ok := p.ManualPrice.Get(); ok && v < 0 {
		fields = append(fields, validation.Min("manual_price", 0))
	}
	if v, ok := p.CompetitorPrice.Get(); ok && v < 0 {
		fields = append(fields, validation.Min("competitor_price", 0))
	}
	for i, v := range p.Variants {
		fields = append(fields, variantFields(i, v)...)
	}
	return validation.Join("product", fields)
}

func variantFields(i int, v pricing.Variant) []validation.FieldError {
	name := func(f string) string { return fmt.Sprintf("variants[%d].%s", i, f) }

	var out []validation.FieldError
	if v.Quantity != nil && *v.Quantity < 1 {
		out = append(out, validation.Min(name("qty"), 1))
	}
	if v.TotalCost != nil && *v.TotalCost < 0 {
		out = append(out, validation.Min(name("cost"), 0))
	}
	if v.TargetMargin != nil && (*v.TargetMargin < 0 || *v.TargetMargin >= 1) {
		out = append(out, validation.FieldError{
			Code:    "ERR_RANGE",
			Field:   name("profit"),
			Message: name("profit") + " must be at least 0 and below 1",
		})
	}
	return out
}

// Defaults returns the values the product's variants inherit.
func (p Product) Defaults() pricing.ProductDefaults {
	return pricing.ProductDefaults{
		Name:            p.Name,
		UnitCost:        pricing.SourceAmount(p.UnitCost),
		UnitWeightKg:    p.UnitWeightKg,
		Quantity:        p.Quantity,
		TargetMargin:    p.TargetMargin,
		AdFraction:      p.AdFraction,
		ManualPrice:     p.ManualPrice,
		CompetitorPrice: p.CompetitorPrice,
	}
}

// NewVariant is the variant appended by AppendVariant: one unit at the
// product's unit cost and target margin, with no manual or competitor price.
func (p Product) NewVariant() pricing.Variant {
	qty := 1
	cost := pricing.SourceAmount(p.UnitCost)
	margin := p.TargetMargin
	return pricing.Variant{
		Name:            "new variant",
		Quantity:        &qty,
		TotalCost:       &cost,
		TargetMargin:    &margin,
		ManualPrice:     pricing.ZeroPrice(),
		CompetitorPrice: pricing.ZeroPrice(),
	}
}
