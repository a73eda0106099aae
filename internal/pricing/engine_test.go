package pricing

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

func sampleInputs() CostInputs {
	return CostInputs{
		UnitCost:     50,
		Quantity:     1,
		UnitWeightKg: 0.5,
		DomesticFee:  0,
		TargetMargin: 0.30,
		AdFraction:   0,
		ExchangeRate: 5.4428,
		AirChannel:   AirGeneral,
	}
}

func TestEvaluate_SingleLightParcelOnGeneralAir(t *testing.T) {
	report, err := Evaluate(sampleInputs(), DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	nearlyEqual(t, "air shipping", float64(report.Air.Shipping.Cost), 40, 1e-9)
	if report.Air.Shipping.Formula != "40(base) + 0.00kg × 23" {
		t.Fatalf("air formula = %q", report.Air.Shipping.Formula)
	}
	nearlyEqual(t, "sea shipping", float64(report.Sea.Shipping.Cost), 30, 1e-9)
	nearlyEqual(t, "air hard cost", float64(report.Air.HardCost), 90, 1e-9)
	nearlyEqual(t, "air hard cost target", float64(report.Air.HardCostTarget), 16.54, 0.005)
	nearlyEqual(t, "suggested price", float64(report.SuggestedPrice), 25.58, 0.005)
	nearlyEqual(t, "final price", float64(report.FinalPrice), float64(report.SuggestedPrice), 0)
	nearlyEqual(t, "air margin", report.Air.Margin, 0.30, 1e-9)

	if !report.Solvable {
		t.Fatalf("expected a solvable price")
	}
	if report.ManualOverride {
		t.Fatalf("expected no manual override")
	}
	if report.Competitor != nil {
		t.Fatalf("expected no competitor comparison, got %+v", report.Competitor)
	}
}

func TestEvaluate_SeaComparedAtSamePrice(t *testing.T) {
	report, err := Evaluate(sampleInputs(), DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if report.Sea.Channel != SeaStandard {
		t.Fatalf("sea channel = %s", report.Sea.Channel)
	}
	nearlyEqual(t, "sea hard cost", float64(report.Sea.HardCost), 80, 1e-9)

	wantSeaProfit := report.FinalPrice - report.Sea.HardCostTarget - report.Fees.Total()
	nearlyEqual(t, "sea profit", float64(report.Sea.Profit), float64(wantSeaProfit), 1e-12)

	// Same price, same fees: the sea channel earns exactly the freight saved.
	nearlyEqual(t, "sea advantage", float64(report.SeaAdvantage()), 10, 1e-9)
	if report.Sea.Margin <= report.Air.Margin {
		t.Fatalf("sea margin %v should exceed air margin %v", report.Sea.Margin, report.Air.Margin)
	}
}

func TestEvaluate_FeesAtFinalPrice(t *testing.T) {
	in := sampleInputs()
	in.AdFraction = 0.10

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	final := float64(report.FinalPrice)
	nearlyEqual(t, "processor fee", float64(report.Fees.Processor), final*0.034+0.50, 1e-12)
	nearlyEqual(t, "ad fee", float64(report.Fees.Ad), final*0.10, 1e-12)
	nearlyEqual(t, "air margin", report.Air.Margin, 0.30, 1e-9)
}

func TestEvaluate_ManualOverrideBypassesSolver(t *testing.T) {
	in := sampleInputs()
	in.ManualPrice = SomePrice(30)

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !report.ManualOverride {
		t.Fatalf("expected manual override flag")
	}
	nearlyEqual(t, "final price", float64(report.FinalPrice), 30, 0)
	nearlyEqual(t, "suggested price", float64(report.SuggestedPrice), 25.58, 0.005)

	wantProfit := 30 - float64(report.Air.HardCostTarget) - (30*0.034 + 0.50)
	nearlyEqual(t, "air profit", float64(report.Air.Profit), wantProfit, 1e-9)
	nearlyEqual(t, "air margin", report.Air.Margin, wantProfit/30, 1e-9)
}

func TestEvaluate_ZeroManualPriceIsIgnored(t *testing.T) {
	in := sampleInputs()
	in.ManualPrice = SomePrice(0)

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.ManualOverride {
		t.Fatalf("a zero manual price must not override the suggested price")
	}
	nearlyEqual(t, "final price", float64(report.FinalPrice), float64(report.SuggestedPrice), 0)
}

func TestEvaluate_UnsolvableFallsBackToZeroPrice(t *testing.T) {
	in := sampleInputs()
	in.TargetMargin = 0.60
	in.AdFraction = 0.40

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if report.Solvable {
		t.Fatalf("expected unsolvable price")
	}
	nearlyEqual(t, "suggested price", float64(report.SuggestedPrice), 0, 0)
	nearlyEqual(t, "final price", float64(report.FinalPrice), 0, 0)
	nearlyEqual(t, "air margin", report.Air.Margin, 0, 0)
	nearlyEqual(t, "sea margin", report.Sea.Margin, 0, 0)
	nearlyEqual(t, "processor fee", float64(report.Fees.Processor), 0.50, 1e-12)
	if report.Air.Profit >= 0 {
		t.Fatalf("expected a loss at a zero price, got %v", report.Air.Profit)
	}
}

func TestEvaluate_UnsolvableWithManualPrice(t *testing.T) {
	in := sampleInputs()
	in.TargetMargin = 0.70
	in.AdFraction = 0.30
	in.ManualPrice = SomePrice(40)

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Solvable {
		t.Fatalf("expected unsolvable suggested price")
	}
	nearlyEqual(t, "suggested price", float64(report.SuggestedPrice), 0, 0)
	nearlyEqual(t, "final price", float64(report.FinalPrice), 40, 0)
	if report.Air.Margin == 0 {
		t.Fatalf("expected margin computed at the manual price")
	}
}

func TestEvaluate_CompetitorComparison(t *testing.T) {
	tests := []struct {
		name       string
		competitor OptionalPrice
		wantLabel  string
		wantNil    bool
	}{
		{name: "absent", competitor: NoPrice(), wantNil: true},
		{name: "zero means unknown", competitor: SomePrice(0), wantNil: true},
		{name: "we are dearer", competitor: SomePrice(20), wantLabel: LabelMoreExpensive},
		{name: "we are cheaper", competitor: SomePrice(30), wantLabel: LabelCheaper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInputs()
			in.CompetitorPrice = tt.competitor

			report, err := Evaluate(in, DefaultFeeModel)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			if tt.wantNil {
				if report.Competitor != nil {
					t.Fatalf("expected no comparison, got %+v", report.Competitor)
				}
				return
			}
			if report.Competitor == nil {
				t.Fatalf("expected a comparison")
			}
			comp, _ := tt.competitor.Get()
			delta := report.FinalPrice - comp
			nearlyEqual(t, "delta", float64(report.Competitor.Delta), float64(delta), 1e-12)
			if report.Competitor.Label != tt.wantLabel {
				t.Fatalf("label = %q, want %q", report.Competitor.Label, tt.wantLabel)
			}
			if (report.Competitor.Delta > 0) != (tt.wantLabel == LabelMoreExpensive) {
				t.Fatalf("label %q does not match delta sign %v", report.Competitor.Label, report.Competitor.Delta)
			}
		})
	}
}

func TestEvaluate_BulkShipmentUsesFlatRate(t *testing.T) {
	in := sampleInputs()
	in.UnitWeightKg = 3
	in.Quantity = 4
	in.AirChannel = AirSensitive

	report, err := Evaluate(in, DefaultFeeModel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	nearlyEqual(t, "total weight", report.TotalWeightKg, 12, 0)
	nearlyEqual(t, "goods", float64(report.Goods), 200, 0)
	nearlyEqual(t, "air shipping", float64(report.Air.Shipping.Cost), 12*29.5, 1e-9)
	nearlyEqual(t, "sea shipping", float64(report.Sea.Shipping.Cost), 120, 1e-9)
	nearlyEqual(t, "air margin", report.Air.Margin, 0.30, 1e-9)
}

func TestEvaluate_NonPositiveWeightIsAnError(t *testing.T) {
	in := sampleInputs()
	in.UnitWeightKg = 0

	if _, err := Evaluate(in, DefaultFeeModel); !errors.Is(err, ErrNonPositiveWeight) {
		t.Fatalf("expected ErrNonPositiveWeight, got %v", err)
	}
}

func TestEvaluate_RealizedMarginMatchesTarget(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	channels := []Channel{AirGeneral, AirSensitive}

	checked := 0
	for i := 0; i < 2000; i++ {
		in := CostInputs{
			UnitCost:     SourceAmount(rng.Float64() * 500),
			Quantity:     1 + rng.IntN(20),
			UnitWeightKg: 0.01 + rng.Float64()*3,
			DomesticFee:  SourceAmount(rng.Float64() * 30),
			TargetMargin: rng.Float64() * 0.9,
			AdFraction:   rng.Float64() * 0.5,
			ExchangeRate: Rate(0.5 + rng.Float64()*10),
			AirChannel:   channels[rng.IntN(len(channels))],
		}
		if 1-DefaultFeeModel.ProcessorPct-in.AdFraction-in.TargetMargin <= MinDenominator {
			continue
		}

		report, err := Evaluate(in, DefaultFeeModel)
		if err != nil {
			t.Fatalf("Evaluate(%+v): %v", in, err)
		}
		if !report.Solvable {
			t.Fatalf("expected solvable price for %+v", in)
		}
		tol := 1e-6 * math.Max(1, math.Abs(in.TargetMargin))
		if math.Abs(report.Air.Margin-in.TargetMargin) > tol {
			t.Fatalf("margin = %v, want %v for %+v", report.Air.Margin, in.TargetMargin, in)
		}
		checked++
	}

	if checked < 500 {
		t.Fatalf("only %d solvable samples checked", checked)
	}
}
