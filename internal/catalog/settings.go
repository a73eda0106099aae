package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/pricing"
	"github.com/Simplici0/sourcing/internal/validation"
)

// Settings is the single row of workstation-wide pricing settings.
type Settings struct {
	// ExchangeRateOverride replaces the live rate when greater than zero.
	ExchangeRateOverride float64   `json:"exchange_rate_override" validate:"gte=0"`
	AirChannel           string    `json:"air_channel" validate:"required,oneof=air-general air-sensitive"`
	DomesticFee          float64   `json:"domestic_fee" validate:"gte=0"`
	AdFraction           float64   `json:"ad_fraction" validate:"gte=0,lt=1"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultSettings is used when the settings row has not been seeded.
var DefaultSettings = Settings{AirChannel: string(pricing.AirGeneral)}

// Validate checks the settings fields.
func (s Settings) Validate() error {
	return validation.Struct("settings", s)
}

// HasOverride reports whether a manual exchange rate is in force.
func (s Settings) HasOverride() bool {
	return s.ExchangeRateOverride > 0
}

// PricingSettings builds the engine settings at the given rate.
func (s Settings) PricingSettings(rate pricing.Rate, fees pricing.FeeModel) pricing.Settings {
	return pricing.Settings{
		ExchangeRate: rate,
		AirChannel:   pricing.Channel(s.AirChannel),
		DomesticFee:  pricing.SourceAmount(s.DomesticFee),
		AdFraction:   s.AdFraction,
		Fees:         fees,
	}
}

// Settings loads the settings row, or DefaultSettings when it is missing.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	var (
		out     Settings
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT exchange_rate_override, air_channel, domestic_fee, ad_fraction, updated_at
		FROM settings
		WHERE id = 1
	`).Scan(&out.ExchangeRateOverride, &out.AirChannel, &out.DomesticFee, &out.AdFraction, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings, nil
	}
	if err != nil {
		return Settings{}, apperr.Internal("load settings", err)
	}
	out.UpdatedAt = parseTime(updated)
	return out, nil
}

// SaveSettings validates and stores the settings row.
func (s *Store) SaveSettings(ctx context.Context, in Settings) (Settings, error) {
	if err := in.Validate(); err != nil {
		return Settings{}, apperr.Input("invalid settings", err)
	}

	now := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, exchange_rate_override, air_channel, domestic_fee, ad_fraction, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			exchange_rate_override = excluded.exchange_rate_override,
			air_channel = excluded.air_channel,
			domestic_fee = excluded.domestic_fee,
			ad_fraction = excluded.ad_fraction,
			updated_at = excluded.updated_at
	`, in.ExchangeRateOverride, in.AirChannel, in.DomesticFee, in.AdFraction, now); err != nil {
		return Settings{}, apperr.Internal("save settings", err)
	}

	return s.Settings(ctx)
}
