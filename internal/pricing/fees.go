package pricing

import (
	"errors"
	"fmt"
)

// ErrNegativePrice is returned when fees are requested for a negative price.
var ErrNegativePrice = errors.New("price must not be negative")

// FeeModel describes the payment processor's charge: a percentage of the
// sale price plus a fixed amount per order.
type FeeModel struct {
	ProcessorPct   float64      `json:"processor_pct" yaml:"processor_pct" default:"0.034"`
	ProcessorFixed TargetAmount `json:"processor_fixed" yaml:"processor_fixed" default:"0.5"`
}

// DefaultFeeModel is the processor schedule the tool was built around: 3.4% + 0.50.
var DefaultFeeModel = FeeModel{ProcessorPct: 0.034, ProcessorFixed: 0.50}

// Fees is the fee breakdown at one sale price.
type Fees struct {
	Processor TargetAmount `json:"processor"`
	Ad        TargetAmount `json:"ad"`
}

// Total returns processor plus advertising fees.
func (f Fees) Total() TargetAmount {
	return f.Processor + f.Ad
}

// Fees computes the processor and advertising fees charged on price.
func (m FeeModel) Fees(price TargetAmount, adFraction float64) (Fees, error) {
	if price < 0 {
		return Fees{}, fmt.Errorf("fees at %v: %w", price, ErrNegativePrice)
	}
	return Fees{
		Processor: price*TargetAmount(m.ProcessorPct) + m.ProcessorFixed,
		Ad:        price * TargetAmount(adFraction),
	}, nil
}
