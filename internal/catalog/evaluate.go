package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/fxrate"
	"github.com/Simplici0/sourcing/internal/metrics"
	"github.com/Simplici0/sourcing/internal/pricing"
)

// Evaluator prices stored products and ad-hoc quotes under the stored settings.
type Evaluator struct {
	store    *Store
	rates    fxrate.Provider
	fees     pricing.FeeModel
	log      *zap.Logger
	recorder *metrics.Recorder
}

func NewEvaluator(store *Store, rates fxrate.Provider, fees pricing.FeeModel, log *zap.Logger, recorder *metrics.Recorder) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{store: store, rates: rates, fees: fees, log: log, recorder: recorder}
}

// Evaluation is a stored product priced variant by variant.
type Evaluation struct {
	Product  Product                 `json:"product"`
	Settings pricing.Settings        `json:"settings"`
	Rate     fxrate.Quote            `json:"rate"`
	Variants []pricing.VariantReport `json:"variants"`
	Summary  Summary                 `json:"summary"`
	Warnings []string                `json:"warnings,omitempty"`
}

// QuoteRequest is an ad-hoc evaluation. Zero or nil shared values are taken
// from the stored settings and the current exchange rate.
type QuoteRequest struct {
	UnitCost        float64               `json:"unit_cost"`
	Quantity        int                   `json:"quantity"`
	UnitWeightKg    float64               `json:"unit_weight_kg"`
	TargetMargin    float64               `json:"target_margin"`
	AdFraction      *float64              `json:"ad_fraction"`
	DomesticFee     *float64              `json:"domestic_fee"`
	ExchangeRate    float64               `json:"exchange_rate"`
	AirChannel      string                `json:"air_channel"`
	ManualPrice     pricing.OptionalPrice `json:"manual_price"`
	CompetitorPrice pricing.OptionalPrice `json:"competitor_price"`
}

// QuoteResult is the outcome of an ad-hoc evaluation.
type QuoteResult struct {
	Inputs pricing.CostInputs   `json:"inputs"`
	Rate   fxrate.Quote         `json:"rate"`
	Report pricing.ProfitReport `json:"report"`
}

// Rate resolves the exchange rate: a manual override in the settings wins
// over the provider.
func (e *Evaluator) Rate(ctx context.Context, s Settings) fxrate.Quote {
	if s.HasOverride() {
		e.recorder.RecordRateSource(string(fxrate.SourceManual))
		return fxrate.Fixed{Rate: pricing.Rate(s.ExchangeRateOverride)}.Current(ctx)
	}
	return e.rates.Current(ctx)
}

// EvaluateProduct prices every variant of a stored product and refreshes
// the product's summary snapshot from the first variant.
func (e *Evaluator) EvaluateProduct(ctx context.Context, id int64) (Evaluation, error) {
	start := time.Now()
	defer func() { e.recorder.RecordLatency("evaluate_product", time.Since(start).Seconds()) }()

	p, err := e.store.Get(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	stored, err := e.store.Settings(ctx)
	if err != nil {
		return Evaluation{}, err
	}

	quote := e.Rate(ctx, stored)
	settings := stored.PricingSettings(quote.Rate, e.fees)

	reports, err := pricing.EvaluateProduct(p.Variants, p.Defaults(), settings)
	if err != nil {
		return Evaluation{}, apperr.Input("cannot evaluate product", err).WithContext("id", id)
	}
	for _, r := range reports {
		e.observe(settings.AirChannel, r.Report)
	}

	sum, err := e.store.SaveSummary(ctx, id, reports)
	if err != nil {
		return Evaluation{}, err
	}
	p.Summary = sum

	e.log.Debug("evaluated product",
		zap.Int64("product_id", id),
		zap.Int("variants", len(reports)),
		zap.Float64("rate", float64(quote.Rate)),
		zap.String("rate_source", string(quote.Source)),
	)

	return Evaluation{
		Product:  p,
		Settings: settings,
		Rate:     quote,
		Variants: reports,
		Summary:  sum,
		Warnings: p.Warnings,
	}, nil
}

// Quote prices a single ad-hoc configuration without storing anything.
func (e *Evaluator) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	start := time.Now()
	defer func() { e.recorder.RecordLatency("quote", time.Since(start).Seconds()) }()

	stored, err := e.store.Settings(ctx)
	if err != nil {
		return QuoteResult{}, err
	}

	var rate fxrate.Quote
	if req.ExchangeRate != 0 {
		rate = fxrate.Fixed{Rate: pricing.Rate(req.ExchangeRate)}.Current(ctx)
	} else {
		rate = e.Rate(ctx, stored)
	}

	in := req.inputs(stored, rate.Rate)
	if err := in.Validate(); err != nil {
		return QuoteResult{}, apperr.Input("invalid quote", err)
	}

	report, err := pricing.Evaluate(in, e.fees)
	if err != nil {
		return QuoteResult{}, apperr.Input("cannot evaluate quote", err)
	}
	e.observe(in.AirChannel, report)

	return QuoteResult{Inputs: in, Rate: rate, Report: report}, nil
}

func (r QuoteRequest) inputs(s Settings, rate pricing.Rate) pricing.CostInputs {
	qty := r.Quantity
	if qty == 0 {
		qty = 1
	}
	channel := pricing.Channel(s.AirChannel)
	if r.AirChannel != "" {
		channel = pricing.Channel(r.AirChannel)
	}
	ad := s.AdFraction
	if r.AdFraction != nil {
		ad = *r.AdFraction
	}
	domestic := s.DomesticFee
	if r.DomesticFee != nil {
		domestic = *r.DomesticFee
	}

	return pricing.CostInputs{
		UnitCost:        pricing.SourceAmount(r.UnitCost),
		Quantity:        qty,
		UnitWeightKg:    r.UnitWeightKg,
		DomesticFee:     pricing.SourceAmount(domestic),
		TargetMargin:    r.TargetMargin,
		AdFraction:      ad,
		ExchangeRate:    rate,
		AirChannel:      channel,
		ManualPrice:     r.ManualPrice,
		CompetitorPrice: r.CompetitorPrice,
	}
}

func (e *Evaluator) observe(channel pricing.Channel, r pricing.ProfitReport) {
	outcome := "priced"
	switch {
	case r.ManualOverride:
		outcome = "manual"
	case !r.Solvable:
		outcome = "unsolvable"
	}
	if !r.Solvable {
		e.recorder.RecordUnsolvable()
	}
	e.recorder.RecordEvaluation(string(channel), outcome)
}
