package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Simplici0/sourcing/internal/catalog"
	"github.com/Simplici0/sourcing/internal/fxrate"
	"github.com/Simplici0/sourcing/internal/report"
)

func newProductCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "product <id>",
		Short: "Evaluate a stored product and refresh its summary",
		Long: `Price every variant of a stored product under the stored settings.

The product's suggested price, final price and hard cost snapshot is
refreshed from its first variant, as when the product is saved.

Examples:
  sourcing product 12
  sourcing product 12 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			return a.runProduct(cmd, id, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	return cmd
}

func (a *app) runProduct(cmd *cobra.Command, id int64, format string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := a.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	opts, cache := a.cfg.RateOptions()
	rates, closeRates := fxrate.NewProvider(ctx, opts, cache, a.log, nil)
	defer closeRates()

	store := catalog.NewStore(database, a.log, nil)
	eval := catalog.NewEvaluator(store, rates, a.cfg.Pricing.Fees, a.log, nil)

	ev, err := eval.EvaluateProduct(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, ev)
	}
	return report.Write(out, report.Header{
		Title:      ev.Product.Name,
		Rate:       ev.Rate.Rate,
		RateSource: string(ev.Rate.Source),
		Warnings:   ev.Warnings,
	}, ev.Variants)
}
