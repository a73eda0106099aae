package pricing

import (
	"bytes"
	"encoding/json"
)

// SourceAmount is a value in the buying currency: goods, freight and domestic handling.
type SourceAmount float64

// TargetAmount is a value in the selling currency: prices, fees and profit.
type TargetAmount float64

// Rate is the number of source currency units per target currency unit.
type Rate float64

// ToTarget converts a source amount into the selling currency.
func (r Rate) ToTarget(a SourceAmount) TargetAmount {
	return TargetAmount(float64(a) / float64(r))
}

// ToSource converts a selling-currency amount back into the buying currency.
func (r Rate) ToSource(a TargetAmount) SourceAmount {
	return SourceAmount(float64(a) * float64(r))
}

// OptionalPrice is a selling-currency price that may be absent.
type OptionalPrice struct {
	value TargetAmount
	set   bool
}

// SomePrice returns a present price.
func SomePrice(v TargetAmount) OptionalPrice {
	return OptionalPrice{value: v, set: true}
}

// NoPrice returns an absent price.
func NoPrice() OptionalPrice {
	return OptionalPrice{}
}

// ZeroPrice is a present price of 0. It means "no price" to the engine but,
// unlike NoPrice, stops a variant from inheriting the product's price.
func ZeroPrice() OptionalPrice {
	return SomePrice(0)
}

// PriceFromWire maps the persisted representation, where 0 means "not set", to an OptionalPrice.
func PriceFromWire(v float64) OptionalPrice {
	if v > 0 {
		return SomePrice(TargetAmount(v))
	}
	return NoPrice()
}

// Get returns the price and whether it is present.
func (p OptionalPrice) Get() (TargetAmount, bool) {
	return p.value, p.set
}

// Positive returns the price only when it is present and greater than zero.
func (p OptionalPrice) Positive() (TargetAmount, bool) {
	if p.set && p.value > 0 {
		return p.value, true
	}
	return 0, false
}

// IsSet reports whether the price is present.
func (p OptionalPrice) IsSet() bool {
	return p.set
}

// Wire returns the persisted representation (0 when absent).
func (p OptionalPrice) Wire() float64 {
	if !p.set {
		return 0
	}
	return float64(p.value)
}

// MarshalJSON encodes an absent price as null.
func (p OptionalPrice) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p.value))
}

// UnmarshalJSON accepts null or a number.
func (p *OptionalPrice) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = NoPrice()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = SomePrice(TargetAmount(v))
	return nil
}
