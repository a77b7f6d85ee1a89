package schema_test

import (
	"errors"
	"testing"

	"github.com/openparks/corral/schema"
)

func geopoint(lat, lng float64) map[string]any {
	return map[string]any{"lat": lat, "lng": lng}
}

func TestRule_Type(t *testing.T) {
	tests := []struct {
		name  string
		rule  schema.Rule
		value any
		ok    bool
	}{
		{"string ok", schema.Type("string"), "hello", true},
		{"string wrong", schema.Type("string"), 42, false},
		{"number ok", schema.Type("number"), 3.14, true},
		{"number from int", schema.Type("number"), 7, true},
		{"boolean ok", schema.Type("boolean"), true, true},
		{"multi-type", schema.Type("string", "number"), 42, true},
		{"list ok", schema.Type("list"), []any{"a"}, true},
		{"map ok", schema.Type("map"), map[string]any{}, true},
		{"nil rejected", schema.Type("string"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Int(t *testing.T) {
	tests := []struct {
		name  string
		rule  schema.Rule
		value any
		ok    bool
	}{
		{"integer", schema.Int(), 5, true},
		{"integer float64", schema.Int(), float64(5), true},
		{"fraction", schema.Int(), 5.5, false},
		{"negative rejected", schema.Int(), -1, false},
		{"negative allowed", schema.SignedInt(), -1, true},
		{"string rejected", schema.Int(), "5", false},
		{"zero", schema.Int(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Range(t *testing.T) {
	rule := schema.Range(0, 23)

	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"lower bound inclusive", 0, true},
		{"upper bound inclusive", 23, true},
		{"inside", 12, true},
		{"below", -1, false},
		{"above", 24, false},
		{"not a number", "12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Enum(t *testing.T) {
	rule := schema.Enum("open", "closed")

	if err := rule.Check("state", "open", schema.VerbSet); err != nil {
		t.Errorf("open should pass: %v", err)
	}
	if err := rule.Check("state", "flooded", schema.VerbSet); err == nil {
		t.Error("flooded should fail")
	}
	if err := rule.Check("state", 1, schema.VerbSet); err == nil {
		t.Error("non-string should fail")
	}
}

func TestRule_Array(t *testing.T) {
	tests := []struct {
		name  string
		rule  schema.Rule
		value any
		ok    bool
	}{
		{"strings ok", schema.Array("string", 0, 0), []any{"a", "b"}, true},
		{"empty ok", schema.Array("string", 0, 0), []any{}, true},
		{"wrong element", schema.Array("string", 0, 0), []any{"a", 2}, false},
		{"below min", schema.Array("string", 2, 0), []any{"a"}, false},
		{"above max", schema.Array("string", 0, 1), []any{"a", "b"}, false},
		{"not a list", schema.Array("string", 0, 0), "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Formats(t *testing.T) {
	tests := []struct {
		name  string
		rule  schema.Rule
		value any
		ok    bool
	}{
		{"email ok", schema.Email(), "visitor@example.com", true},
		{"email bad", schema.Email(), "not-an-email", false},
		{"phone ok", schema.Phone(), "+1 604 555 0100", true},
		{"phone bad", schema.Phone(), "call me", false},
		{"currency number ok", schema.Currency(), 12.50, true},
		{"currency integer ok", schema.Currency(), 12, true},
		{"currency three decimals", schema.Currency(), 12.505, false},
		{"currency negative rejected", schema.Currency(), -1.00, false},
		{"currency negative allowed", schema.SignedCurrency(), -1.00, true},
		{"currency string ok", schema.Currency(), "12.50", true},
		{"currency string bad", schema.Currency(), "12.5", false},
		{"date ok", schema.ISODate(), "2026-07-01", true},
		{"date bad", schema.ISODate(), "07/01/2026", false},
		{"datetime ok", schema.ISODateTime(), "2026-07-01T14:00:00Z", true},
		{"datetime bad", schema.ISODateTime(), "2026-07-01", false},
		{"duration ok", schema.ISODuration(), "P2DT12H", true},
		{"duration weeks", schema.ISODuration(), "P2W", true},
		{"duration empty", schema.ISODuration(), "P", false},
		{"duration bad", schema.ISODuration(), "2 days", false},
		{"time of day ok", schema.TimeOfDay(), "14:00", true},
		{"time of day bad hour", schema.TimeOfDay(), "25:00", false},
		{"time of day bad shape", schema.TimeOfDay(), "2pm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Geopoint(t *testing.T) {
	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"valid", geopoint(49.2827, -123.1207), true},
		{"lat too high", geopoint(90.1, 0), false},
		{"lat too low", geopoint(-90.1, 0), false},
		{"lng too high", geopoint(0, 180.1), false},
		{"lng too low", geopoint(0, -180.1), false},
		{"boundary", geopoint(90, -180), true},
		{"missing lng", map[string]any{"lat": 49.0}, false},
		{"not an object", "49,-123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Geopoint().Check("f", tt.value, schema.VerbSet)
			if (err == nil) != tt.ok {
				t.Errorf("got %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestRule_Envelope(t *testing.T) {
	valid := map[string]any{
		"sw": geopoint(48.0, -125.0),
		"ne": geopoint(50.0, -120.0),
	}
	if err := schema.Envelope().Check("f", valid, schema.VerbSet); err != nil {
		t.Errorf("valid envelope failed: %v", err)
	}

	inverted := map[string]any{
		"sw": geopoint(50.0, -120.0),
		"ne": geopoint(48.0, -125.0),
	}
	if err := schema.Envelope().Check("f", inverted, schema.VerbSet); err == nil {
		t.Error("inverted envelope should fail")
	}

	missing := map[string]any{"sw": geopoint(48.0, -125.0)}
	if err := schema.Envelope().Check("f", missing, schema.VerbSet); err == nil {
		t.Error("envelope without ne should fail")
	}
}

func TestRule_Verbs(t *testing.T) {
	rule := schema.Verbs(schema.VerbSet)

	if err := rule.Check("f", "v", schema.VerbSet); err != nil {
		t.Errorf("set should pass: %v", err)
	}
	if err := rule.Check("f", "v", schema.VerbAdd); err == nil {
		t.Error("add should fail on a set-only field")
	}
}

func TestRule_ErrorsWrapSentinel(t *testing.T) {
	err := schema.Enum("open").Check("state", "closed", schema.VerbSet)
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("expected errors.Is(err, ErrValidation), got %v", err)
	}

	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "state" {
		t.Errorf("expected field state, got %q", verr.Field)
	}
}
