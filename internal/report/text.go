// Package report renders profit reports as plain text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/sourcing/internal/pricing"
)

// Header describes what is being reported on.
type Header struct {
	Title      string
	Rate       pricing.Rate
	RateSource string
	Warnings   []string
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func src(v pricing.SourceAmount) string { return money(float64(v)) }

func tgt(v pricing.TargetAmount) string { return money(float64(v)) }

func pct(v float64) string {
	return decimal.NewFromFloat(v * 100).StringFixed(1) + "%"
}

// Write renders every variant report to w.
func Write(w io.Writer, h Header, variants []pricing.VariantReport) error {
	var b strings.Builder

	if h.Title != "" {
		fmt.Fprintf(&b, "%s\n", h.Title)
	}
	if h.Rate > 0 {
		fmt.Fprintf(&b, "Exchange rate: %s", decimal.NewFromFloat(float64(h.Rate)).String())
		if h.RateSource != "" {
			fmt.Fprintf(&b, " (%s)", h.RateSource)
		}
		b.WriteString("\n")
	}

	for _, w := range h.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	for _, v := range variants {
		b.WriteString("\n")
		writeVariant(&b, v)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Text renders every variant report to a string.
func Text(h Header, variants []pricing.VariantReport) string {
	var b strings.Builder
	_ = Write(&b, h, variants)
	return b.String()
}

func writeVariant(b *strings.Builder, v pricing.VariantReport) {
	r := v.Report
	fmt.Fprintf(b, "%s %s: qty %d, total weight %skg\n", v.Label(), v.Name, v.Inputs.Quantity, decimal.NewFromFloat(r.TotalWeightKg).StringFixed(2))

	if r.Solvable {
		fmt.Fprintf(b, "  Suggested price: %s\n", tgt(r.SuggestedPrice))
	} else {
		b.WriteString("  Suggested price: cannot compute a valid price (fees, advertising and margin leave nothing to cover cost)\n")
	}
	if r.ManualOverride {
		fmt.Fprintf(b, "  Final price:     %s (manual)\n", tgt(r.FinalPrice))
	} else {
		fmt.Fprintf(b, "  Final price:     %s\n", tgt(r.FinalPrice))
	}

	writeChannel(b, "Air", r.Air, r)
	writeChannel(b, "Sea", r.Sea, r)

	fmt.Fprintf(b, "  Fees: processor %s, advertising %s\n", tgt(r.Fees.Processor), tgt(r.Fees.Ad))
	switch adv := r.SeaAdvantage(); {
	case adv > 0:
		fmt.Fprintf(b, "  Sea vs air: %s more profit by sea\n", src(adv))
	case adv < 0:
		fmt.Fprintf(b, "  Sea vs air: %s more profit by air\n", src(-adv))
	default:
		b.WriteString("  Sea vs air: same profit\n")
	}

	if c := r.Competitor; c != nil {
		delta := c.Delta
		if delta < 0 {
			delta = -delta
		}
		fmt.Fprintf(b, "  Competitor: %s, we are %s %s\n", tgt(c.CompetitorPrice), tgt(delta), c.Label)
	}
}

func writeChannel(b *strings.Builder, title string, c pricing.ChannelResult, r pricing.ProfitReport) {
	fmt.Fprintf(b, "  %s (%s)\n", title, c.Channel)
	fmt.Fprintf(b, "    Shipping: %s = %s\n", c.Shipping.Formula, src(c.Shipping.Cost))
	fmt.Fprintf(b, "    Hard cost: goods %s + domestic %s + shipping %s = %s (%s at rate %s)\n",
		src(r.Goods), src(r.DomesticFee), src(c.Shipping.Cost), src(c.HardCost),
		tgt(c.HardCostTarget), decimal.NewFromFloat(float64(r.ExchangeRate)).String())
	fmt.Fprintf(b, "    Profit: %s (%s), margin %s\n", tgt(c.Profit), src(c.ProfitSource), pct(c.Margin))
}
