package validation

import (
	"errors"
	"testing"
)

type settingsForm struct {
	Channel  string  `json:"air_channel" validate:"required,oneof=air-general air-sensitive"`
	Fraction float64 `json:"ad_fraction" validate:"gte=0,lt=1"`
	Note     string  `json:"note" validate:"max=4"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct("settings", settingsForm{Channel: "sea", Fraction: 1, Note: "too long"})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if verr.Subject != "settings" || len(verr.Fields) != 3 {
		t.Fatalf("unexpected error: %+v", verr)
	}

	want := []FieldError{
		{Code: "ERR_ONEOF", Field: "air_channel", Message: "air_channel must be one of: air-general, air-sensitive"},
		{Code: "ERR_LT", Field: "ad_fraction", Message: "ad_fraction must be less than 1"},
		{Code: "ERR_MAX", Field: "note", Message: "note must be at most 4 characters"},
	}
	for i, w := range want {
		if verr.Fields[i] != w {
			t.Fatalf("field %d = %+v, want %+v", i, verr.Fields[i], w)
		}
	}
}

func TestStruct_ValidValue(t *testing.T) {
	if err := Struct("settings", settingsForm{Channel: "air-general", Fraction: 0.2}); err != nil {
		t.Fatalf("Struct: %v", err)
	}
}

func TestJoin(t *testing.T) {
	if err := Join("product", nil); err != nil {
		t.Fatalf("Join(nil) = %v", err)
	}
	err := Join("product", []FieldError{Min("manual_price", 0)})
	if err == nil || err.Error() != "invalid product: manual_price must be greater than or equal to 0" {
		t.Fatalf("Join = %v", err)
	}
}
