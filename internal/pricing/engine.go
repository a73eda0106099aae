// Package pricing computes landed cost, suggested sale price and profit for
// cross-border product variants shipped by air or by sea.
package pricing

import "fmt"

// Competitor comparison labels.
const (
	LabelCheaper       = "cheaper"
	LabelMoreExpensive = "more expensive"
)

// CostInputs are the per-variant inputs of one evaluation.
type CostInputs struct {
	UnitCost        SourceAmount  `json:"unit_cost" validate:"gte=0"`
	Quantity        int           `json:"quantity" validate:"gte=1"`
	UnitWeightKg    float64       `json:"unit_weight_kg" validate:"gt=0"`
	DomesticFee     SourceAmount  `json:"domestic_fee" validate:"gte=0"`
	TargetMargin    float64       `json:"target_margin" validate:"gte=0,lt=1"`
	AdFraction      float64       `json:"ad_fraction" validate:"gte=0,lt=1"`
	ExchangeRate    Rate          `json:"exchange_rate" validate:"gt=0"`
	AirChannel      Channel       `json:"air_channel" validate:"required,oneof=air-general air-sensitive"`
	ManualPrice     OptionalPrice `json:"manual_price"`
	CompetitorPrice OptionalPrice `json:"competitor_price"`
}

// Settings is the shared configuration of an evaluation: the values the
// workstation applies to every product unless a product overrides them.
type Settings struct {
	ExchangeRate Rate         `json:"exchange_rate"`
	AirChannel   Channel      `json:"air_channel"`
	DomesticFee  SourceAmount `json:"domestic_fee"`
	AdFraction   float64      `json:"ad_fraction"`
	Fees         FeeModel     `json:"fees"`
}

// ChannelResult is the cost and profit of one fulfillment channel at the report's final price.
type ChannelResult struct {
	Channel        Channel       `json:"channel"`
	Shipping       ShippingQuote `json:"shipping"`
	HardCost       SourceAmount  `json:"hard_cost"`
	HardCostTarget TargetAmount  `json:"hard_cost_target"`
	Profit         TargetAmount  `json:"profit"`
	ProfitSource   SourceAmount  `json:"profit_source"`
	Margin         float64       `json:"margin"`
}

// Comparison relates the final price to a competitor's price.
type Comparison struct {
	CompetitorPrice TargetAmount `json:"competitor_price"`
	Delta           TargetAmount `json:"delta"`
	Label           string       `json:"label"`
}

// ProfitReport is the full result of one evaluation. Air and sea are
// compared at one common final price. Solvable is false when no positive
// price yields the target margin; SuggestedPrice is then 0.
type ProfitReport struct {
	TotalWeightKg  float64       `json:"total_weight_kg"`
	Goods          SourceAmount  `json:"goods"`
	DomesticFee    SourceAmount  `json:"domestic_fee"`
	ExchangeRate   Rate          `json:"exchange_rate"`
	SuggestedPrice TargetAmount  `json:"suggested_price"`
	FinalPrice     TargetAmount  `json:"final_price"`
	Solvable       bool          `json:"solvable"`
	ManualOverride bool          `json:"manual_override"`
	Fees           Fees          `json:"fees"`
	Air            ChannelResult `json:"air"`
	Sea            ChannelResult `json:"sea"`
	Competitor     *Comparison   `json:"competitor,omitempty"`
}

// SeaAdvantage is how much more the sea channel earns than air, in source currency.
func (r ProfitReport) SeaAdvantage() SourceAmount {
	return r.Sea.ProfitSource - r.Air.ProfitSource
}

// Evaluate prices one variant. Inputs are expected to have passed Validate.
func Evaluate(in CostInputs, fm FeeModel) (ProfitReport, error) {
	goods := in.UnitCost * SourceAmount(in.Quantity)
	weight := in.UnitWeightKg * float64(in.Quantity)

	airQuote, err := Quote(weight, in.AirChannel)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("air shipping: %w", err)
	}
	seaQuote, err := Quote(weight, SeaStandard)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("sea shipping: %w", err)
	}

	airHard := goods + in.DomesticFee + airQuote.Cost
	solution := Solve(in.ExchangeRate.ToTarget(airHard), fm, in.AdFraction, in.TargetMargin)

	final := solution.Price
	manual, hasManual := in.ManualPrice.Positive()
	if hasManual {
		final = manual
	}

	fees, err := fm.Fees(final, in.AdFraction)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("fees: %w", err)
	}

	report := ProfitReport{
		TotalWeightKg:  weight,
		Goods:          goods,
		DomesticFee:    in.DomesticFee,
		ExchangeRate:   in.ExchangeRate,
		SuggestedPrice: solution.Price,
		FinalPrice:     final,
		Solvable:       solution.Solvable,
		ManualOverride: hasManual,
		Fees:           fees,
		Air:            channelResult(airQuote, goods+in.DomesticFee, final, fees, in.ExchangeRate),
		Sea:            channelResult(seaQuote, goods+in.DomesticFee, final, fees, in.ExchangeRate),
	}

	if competitor, ok := in.CompetitorPrice.Positive(); ok {
		report.Competitor = compare(final, competitor)
	}

	return report, nil
}

func channelResult(q ShippingQuote, base SourceAmount, final TargetAmount, fees Fees, rate Rate) ChannelResult {
	hard := base + q.Cost
	hardTarget := rate.ToTarget(hard)
	profit := final - hardTarget - fees.Total()

	margin := 0.0
	if final > 0 {
		margin = float64(profit / final)
	}

	return ChannelResult{
		Channel:        q.Channel,
		Shipping:       q,
		HardCost:       hard,
		HardCostTarget: hardTarget,
		Profit:         profit,
		ProfitSource:   rate.ToSource(profit),
		Margin:         margin,
	}
}

func compare(final, competitor TargetAmount) *Comparison {
	delta := final - competitor
	label := LabelCheaper
	if delta > 0 {
		label = LabelMoreExpensive
	}
	return &Comparison{CompetitorPrice: competitor, Delta: delta, Label: label}
}
