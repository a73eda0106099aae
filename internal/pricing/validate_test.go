package pricing

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Simplici0/sourcing/internal/validation"
)

func TestValidate_AcceptsSampleInputs(t *testing.T) {
	if err := sampleInputs().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_RejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CostInputs)
		wantField string
		wantCode  string
	}{
		{"zero weight", func(in *CostInputs) { in.UnitWeightKg = 0 }, "unit_weight_kg", "ERR_GT"},
		{"zero quantity", func(in *CostInputs) { in.Quantity = 0 }, "quantity", "ERR_GTE"},
		{"negative cost", func(in *CostInputs) { in.UnitCost = -1 }, "unit_cost", "ERR_GTE"},
		{"negative domestic fee", func(in *CostInputs) { in.DomesticFee = -3 }, "domestic_fee", "ERR_GTE"},
		{"margin of one", func(in *CostInputs) { in.TargetMargin = 1 }, "target_margin", "ERR_LT"},
		{"negative ad fraction", func(in *CostInputs) { in.AdFraction = -0.1 }, "ad_fraction", "ERR_GTE"},
		{"zero exchange rate", func(in *CostInputs) { in.ExchangeRate = 0 }, "exchange_rate", "ERR_GT"},
		{"sea is not an air channel", func(in *CostInputs) { in.AirChannel = SeaStandard }, "air_channel", "ERR_ONEOF"},
		{"missing channel", func(in *CostInputs) { in.AirChannel = "" }, "air_channel", "ERR_REQUIRED"},
		{"negative manual price", func(in *CostInputs) { in.ManualPrice = SomePrice(-5) }, "manual_price", "ERR_GTE"},
		{"negative competitor price", func(in *CostInputs) { in.CompetitorPrice = SomePrice(-1) }, "competitor_price", "ERR_GTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInputs()
			tt.mutate(&in)

			err := in.Validate()
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *validation.Error, got %v", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("expected one field error, got %+v", verr.Fields)
			}
			got := verr.Fields[0]
			if got.Field != tt.wantField || got.Code != tt.wantCode {
				t.Fatalf("field error = %+v, want %s/%s", got, tt.wantField, tt.wantCode)
			}
			if !strings.HasPrefix(got.Message, tt.wantField+" ") {
				t.Fatalf("message %q should start with the field name", got.Message)
			}
		})
	}
}

func TestValidate_CollectsEveryField(t *testing.T) {
	in := sampleInputs()
	in.UnitWeightKg = -1
	in.Quantity = 0
	in.ExchangeRate = -2

	err := in.Validate()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %+v", verr.Fields)
	}
	if !strings.HasPrefix(err.Error(), "invalid cost inputs: ") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidate_NaNWeightIsCaughtByEvaluate(t *testing.T) {
	in := sampleInputs()
	in.UnitWeightKg = math.NaN()

	if _, err := Evaluate(in, DefaultFeeModel); !errors.Is(err, ErrNonPositiveWeight) {
		t.Fatalf("expected ErrNonPositiveWeight, got %v", err)
	}
}
