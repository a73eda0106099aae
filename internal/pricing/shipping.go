package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Channel identifies an international fulfillment channel.
type Channel string

const (
	AirGeneral   Channel = "air-general"
	AirSensitive Channel = "air-sensitive"
	SeaStandard  Channel = "sea-standard"
)

// BulkThresholdKg is the weight above which the flat bulk rate applies.
// A shipment of exactly this weight is still priced on the tiered schedule.
const BulkThresholdKg = 10.0

// ErrNonPositiveWeight is returned when a shipment weight is zero or negative.
var ErrNonPositiveWeight = errors.New("shipment weight must be greater than 0")

// RateTriple holds the per-kg tiers of a channel in source currency.
type RateTriple struct {
	First SourceAmount `json:"first"`
	Add   SourceAmount `json:"add"`
	Bulk  SourceAmount `json:"bulk"`
}

var rateTable = map[Channel]RateTriple{
	AirGeneral:   {First: 40, Add: 23, Bulk: 21},
	AirSensitive: {First: 55, Add: 31, Bulk: 29.5},
	SeaStandard:  {First: 30, Add: 10, Bulk: 10},
}

// Channels lists the known channels in display order.
func Channels() []Channel {
	return []Channel{AirGeneral, AirSensitive, SeaStandard}
}

// ParseChannel resolves a channel name. Unknown names resolve to SeaStandard.
func ParseChannel(s string) Channel {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if c.Known() {
		return c
	}
	return SeaStandard
}

// Known reports whether the channel has an entry in the rate table.
func (c Channel) Known() bool {
	_, ok := rateTable[c]
	return ok
}

// IsAir reports whether the channel ships by air.
func (c Channel) IsAir() bool {
	return c == AirGeneral || c == AirSensitive
}

// Rates returns the channel's rate triple, falling back to SeaStandard.
func (c Channel) Rates() RateTriple {
	if r, ok := rateTable[c]; ok {
		return r
	}
	return rateTable[SeaStandard]
}

func (c Channel) resolved() Channel {
	if c.Known() {
		return c
	}
	return SeaStandard
}

// ShippingQuote is the freight cost of one shipment on one channel.
type ShippingQuote struct {
	Channel  Channel      `json:"channel"`
	WeightKg float64      `json:"weight_kg"`
	Cost     SourceAmount `json:"cost"`
	Formula  string       `json:"formula"`
	Bulk     bool         `json:"bulk"`
}

// Quote prices a shipment of weightKg on the given channel.
func Quote(weightKg float64, ch Channel) (ShippingQuote, error) {
	if !(weightKg > 0) {
		return ShippingQuote{}, fmt.Errorf("quote %s at %vkg: %w", ch, weightKg, ErrNonPositiveWeight)
	}

	ch = ch.resolved()
	r := ch.Rates()

	if weightKg > BulkThresholdKg {
		return ShippingQuote{
			Channel:  ch,
			WeightKg: weightKg,
			Cost:     SourceAmount(weightKg) * r.Bulk,
			Formula:  fmt.Sprintf("%.2fkg × %s", weightKg, formatRate(r.Bulk)),
			Bulk:     true,
		}, nil
	}

	addWeight := math.Max(weightKg-1, 0)
	return ShippingQuote{
		Channel:  ch,
		WeightKg: weightKg,
		Cost:     r.First + SourceAmount(addWeight)*r.Add,
		Formula:  fmt.Sprintf("%s(base) + %.2fkg × %s", formatRate(r.First), addWeight, formatRate(r.Add)),
	}, nil
}

func formatRate(v SourceAmount) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}
