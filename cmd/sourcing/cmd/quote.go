package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/sourcing/internal/fxrate"
	"github.com/Simplici0/sourcing/internal/pricing"
	"github.com/Simplici0/sourcing/internal/report"
)

type quoteFlags struct {
	name       string
	unitCost   float64
	quantity   int
	weight     float64
	margin     float64
	ad         float64
	domestic   float64
	rate       float64
	channel    string
	price      float64
	competitor float64
	format     string
}

func newQuoteCmd(a *app) *cobra.Command {
	f := &quoteFlags{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a single configuration without storing it",
		Long: `Price one product configuration and print its profit report.

Shared values (air channel, domestic fee, ad spend) default to the
configuration. Without --rate the live exchange rate is used, falling back
to the configured rate when the feed is unavailable.

Examples:
  sourcing quote --cost 50 --weight 0.5 --margin 0.3
  sourcing quote --cost 45 --qty 3 --weight 0.4 --price 39.9 --competitor 45`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuote(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "product name shown in the report")
	fl.Float64Var(&f.unitCost, "cost", 0, "unit purchase cost in the source currency")
	fl.IntVar(&f.quantity, "qty", 1, "units sold together")
	fl.Float64Var(&f.weight, "weight", 0, "weight of one unit in kg")
	fl.Float64Var(&f.margin, "margin", 0.3, "target profit margin, as a fraction of the price")
	fl.Float64Var(&f.ad, "ad", 0, "ad spend as a fraction of the price (default from config)")
	fl.Float64Var(&f.domestic, "domestic", 0, "domestic freight in the source currency (default from config)")
	fl.Float64Var(&f.rate, "rate", 0, "source units per target unit (default: live rate)")
	fl.StringVar(&f.channel, "channel", "", "air channel: air-general or air-sensitive (default from config)")
	fl.Float64Var(&f.price, "price", 0, "manual selling price; 0 means none")
	fl.Float64Var(&f.competitor, "competitor", 0, "competitor price; 0 means none")
	fl.StringVarP(&f.format, "format", "f", "text", "output format (text, json)")
	_ = cmd.MarkFlagRequired("cost")
	_ = cmd.MarkFlagRequired("weight")

	return cmd
}

func (a *app) runQuote(cmd *cobra.Command, f *quoteFlags) error {
	if err := checkFormat(f.format); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	quote := a.rate(ctx, f.rate)
	settings := a.cfg.PricingDefaults(quote.Rate)
	if f.channel != "" {
		settings.AirChannel = pricing.Channel(f.channel)
	}
	if cmd.Flags().Changed("domestic") {
		settings.DomesticFee = pricing.SourceAmount(f.domestic)
	}
	ad := settings.AdFraction
	if cmd.Flags().Changed("ad") {
		ad = f.ad
	}

	product := pricing.ProductDefaults{
		Name:            f.name,
		UnitCost:        pricing.SourceAmount(f.unitCost),
		UnitWeightKg:    f.weight,
		Quantity:        f.quantity,
		TargetMargin:    f.margin,
		AdFraction:      ad,
		ManualPrice:     pricing.PriceFromWire(f.price),
		CompetitorPrice: pricing.PriceFromWire(f.competitor),
	}
	qty := f.quantity
	cost := pricing.SourceAmount(f.unitCost) * pricing.SourceAmount(qty)
	variant := pricing.SeedVariant(product)
	variant.Quantity = &qty
	variant.TotalCost = &cost

	reports, err := pricing.EvaluateProduct([]pricing.Variant{variant}, product, settings)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.format == "json" {
		return writeJSON(out, struct {
			Rate   fxrate.Quote          `json:"rate"`
			Report pricing.VariantReport `json:"report"`
		}{quote, reports[0]})
	}
	return report.Write(out, report.Header{
		Title:      f.name,
		Rate:       quote.Rate,
		RateSource: string(quote.Source),
	}, reports)
}

// rate returns the fixed rate when one is given, otherwise the live rate.
func (a *app) rate(ctx context.Context, fixed float64) fxrate.Quote {
	if fixed != 0 {
		return fxrate.Fixed{Rate: pricing.Rate(fixed)}.Current(ctx)
	}
	opts, cache := a.cfg.RateOptions()
	provider, closeProvider := fxrate.NewProvider(ctx, opts, cache, a.log, nil)
	defer closeProvider()
	return provider.Current(ctx)
}

func newRateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Print the current exchange rate and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			q := a.rate(ctx, 0)
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), q)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", a.cfg.FX.Currency, decimal.NewFromFloat(float64(q.Rate)).String(), q.Source)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	return cmd
}
