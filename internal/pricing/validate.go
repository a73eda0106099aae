package pricing

import "github.com/Simplici0/sourcing/internal/validation"

// Validate rejects inputs the engine cannot price: non-positive weight,
// quantity below one, a non-positive exchange rate, fractions outside
// [0, 1), negative amounts or an unknown air channel. The error is a
// *validation.Error listing every rejected field.
func (in CostInputs) Validate() error {
	fields, err := validation.Fields(in)
	if err != nil {
		return err
	}

	if v, ok := in.ManualPrice.Get(); ok && v < 0 {
		fields = append(fields, validation.Min("manual_price", 0))
	}
	if v, ok := in.CompetitorPrice.Get(); ok && v < 0 {
		fields = append(fields, validation.Min("competitor_price", 0))
	}

	return validation.Join("cost inputs", fields)
}
