package report

import (
	"strings"
	"testing"

	"github.com/Simplici0/sourcing/internal/pricing"
)

func evaluate(t *testing.T, variants []pricing.Variant, p pricing.ProductDefaults) []pricing.VariantReport {
	t.Helper()
	reports, err := pricing.EvaluateProduct(variants, p, pricing.Settings{
		ExchangeRate: 5.4428,
		AirChannel:   pricing.AirGeneral,
		Fees:         pricing.DefaultFeeModel,
	})
	if err != nil {
		t.Fatalf("EvaluateProduct: %v", err)
	}
	return reports
}

func TestText_SolvableVariant(t *testing.T) {
	p := pricing.ProductDefaults{UnitCost: 50, UnitWeightKg: 0.5, Quantity: 1, TargetMargin: 0.3, CompetitorPrice: pricing.SomePrice(20)}
	out := Text(Header{Title: "Ceramic mug", Rate: 5.4428, RateSource: "live"}, evaluate(t, []pricing.Variant{pricing.SeedVariant(p)}, p))

	for _, want := range []string{
		"Ceramic mug\n",
		"Exchange rate: 5.4428 (live)",
		"#1 1 pc: qty 1, total weight 0.50kg",
		"Suggested price: 25.58",
		"Shipping: 40(base) + 0.00kg × 23 = 40.00",
		"Hard cost: goods 50.00 + domestic 0.00 + shipping 40.00 = 90.00 (16.54 at rate 5.4428)",
		"margin 30.0%",
		"Sea (sea-standard)",
		"Sea vs air: 10.00 more profit by sea",
		"Competitor: 20.00, we are 5.58 more expensive",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestText_UnsolvableVariant(t *testing.T) {
	p := pricing.ProductDefaults{UnitCost: 50, UnitWeightKg: 0.5, Quantity: 1, TargetMargin: 0.6, AdFraction: 0.4}
	out := Text(Header{}, evaluate(t, nil, p))

	if !strings.Contains(out, "cannot compute a valid price") {
		t.Fatalf("expected the unsolvable line:\n%s", out)
	}
	if !strings.Contains(out, "Final price:     0.00") {
		t.Fatalf("expected a zero final price:\n%s", out)
	}
	if strings.Contains(out, "Exchange rate") {
		t.Fatalf("no header rate was given:\n%s", out)
	}
}

func TestText_ManualPriceAndSeveralVariants(t *testing.T) {
	qty := 3
	variants := []pricing.Variant{
		{Name: "Single"},
		{Name: "Triple", Quantity: &qty, ManualPrice: pricing.SomePrice(59.9)},
	}
	p := pricing.ProductDefaults{UnitCost: 50, UnitWeightKg: 0.5, Quantity: 1, TargetMargin: 0.3}
	out := Text(Header{}, evaluate(t, variants, p))

	if !strings.Contains(out, "#1 Single") || !strings.Contains(out, "#2 Triple: qty 3, total weight 1.50kg") {
		t.Fatalf("expected both variants in order:\n%s", out)
	}
	if !strings.Contains(out, "Final price:     59.90 (manual)") {
		t.Fatalf("expected the manual price line:\n%s", out)
	}
	if strings.Index(out, "#1 Single") > strings.Index(out, "#2 Triple") {
		t.Fatalf("variants out of order:\n%s", out)
	}
}

func TestText_SeaVersusAirFollowsTheSign(t *testing.T) {
	p := pricing.ProductDefaults{UnitCost: 50, UnitWeightKg: 0.5, Quantity: 1, TargetMargin: 0.3}
	reports := evaluate(t, nil, p)

	airAhead := reports[0]
	airAhead.Report.Air.ProfitSource = airAhead.Report.Sea.ProfitSource + 3
	if out := Text(Header{}, []pricing.VariantReport{airAhead}); !strings.Contains(out, "Sea vs air: 3.00 more profit by air") {
		t.Fatalf("expected air to be reported ahead:\n%s", out)
	}

	even := reports[0]
	even.Report.Air.ProfitSource = even.Report.Sea.ProfitSource
	if out := Text(Header{}, []pricing.VariantReport{even}); !strings.Contains(out, "Sea vs air: same profit") {
		t.Fatalf("expected an even comparison:\n%s", out)
	}
}

func TestText_Warnings(t *testing.T) {
	p := pricing.ProductDefaults{UnitCost: 50, UnitWeightKg: 0.5, Quantity: 1, TargetMargin: 0.3}
	out := Text(Header{Title: "Ceramic mug", Warnings: []string{"stored variants are malformed and were ignored"}}, evaluate(t, nil, p))

	if !strings.Contains(out, "Warning: stored variants are malformed and were ignored\n") {
		t.Fatalf("expected the warning line:\n%s", out)
	}
	if strings.Index(out, "Warning:") > strings.Index(out, "#1") {
		t.Fatalf("warnings should precede the variants:\n%s", out)
	}
}
