package schema_test

import (
	"errors"
	"testing"

	"github.com/openparks/corral/schema"
)

func TestFieldRule_RulesRunInOrder(t *testing.T) {
	fr := schema.FieldRule{
		Rules: []schema.Rule{schema.Int(), schema.Range(1, 10)},
	}

	if err := fr.Check("capacity", 5, schema.VerbSet); err != nil {
		t.Errorf("5 should pass: %v", err)
	}
	if err := fr.Check("capacity", 5.5, schema.VerbSet); err == nil {
		t.Error("fraction should fail the integer rule")
	}
	if err := fr.Check("capacity", 11, schema.VerbSet); err == nil {
		t.Error("11 should fail the range rule")
	}
}

func TestFieldRule_NestedFields(t *testing.T) {
	fr := schema.FieldRule{
		Rules: []schema.Rule{schema.Type("map")},
		Nested: map[string]schema.FieldRule{
			"state":       {Mandatory: true, Rules: []schema.Rule{schema.Enum("open", "closed")}},
			"stateReason": {Rules: []schema.Rule{schema.Type("string")}},
		},
	}

	if err := fr.Check("status", map[string]any{"state": "open"}, schema.VerbSet); err != nil {
		t.Errorf("valid nested object failed: %v", err)
	}

	err := fr.Check("status", map[string]any{"stateReason": "storm"}, schema.VerbSet)
	var missing *schema.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError for absent state, got %v", err)
	}
	if missing.Field != "status.state" {
		t.Errorf("expected status.state, got %q", missing.Field)
	}

	if err := fr.Check("status", map[string]any{"state": "flooded"}, schema.VerbSet); err == nil {
		t.Error("invalid nested enum should fail")
	}
}

func TestFieldRule_RemoveOnlyChecksVerbs(t *testing.T) {
	fr := schema.FieldRule{
		Rules: []schema.Rule{schema.Type("string"), schema.Verbs(schema.VerbSet, schema.VerbRemove)},
	}

	// A removal has no value; type rules must not fire.
	if err := fr.Check("note", nil, schema.VerbRemove); err != nil {
		t.Errorf("remove should pass verb check only: %v", err)
	}

	locked := schema.FieldRule{
		Rules: []schema.Rule{schema.Verbs(schema.VerbSet)},
	}
	if err := locked.Check("note", nil, schema.VerbRemove); err == nil {
		t.Error("remove should fail a set-only field")
	}
}

func TestUpdateSchemasAreWeaker(t *testing.T) {
	pairs := []struct {
		name           string
		create, update schema.Schema
	}{
		{"protectedArea", schema.ProtectedAreaCreate, schema.ProtectedAreaUpdate},
		{"activity", schema.ActivityCreate, schema.ActivityUpdate},
		{"facility", schema.FacilityCreate, schema.FacilityUpdate},
		{"geozone", schema.GeozoneCreate, schema.GeozoneUpdate},
		{"booking", schema.BookingCreate, schema.BookingUpdate},
		{"transaction", schema.TransactionCreate, schema.TransactionUpdate},
		{"policy", schema.PolicyCreate, schema.PolicyUpdate},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.create.Fields) != len(tt.update.Fields) {
				t.Error("update schema should keep every field's rules")
			}
			for name, fr := range tt.update.Fields {
				if fr.Mandatory {
					t.Errorf("update schema has mandatory field %q", name)
				}
			}
			hasMandatory := false
			for _, fr := range tt.create.Fields {
				if fr.Mandatory {
					hasMandatory = true
				}
			}
			if !hasMandatory {
				t.Error("create schema should have at least one mandatory field")
			}
			if len(tt.update.Immutable) == 0 {
				t.Error("update schema should keep the immutable set")
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := schema.NewRegistry()
	r.Register("facility", schema.OperationCreate, schema.FacilityCreate)

	if _, ok := r.Lookup("facility", schema.OperationCreate); !ok {
		t.Error("registered schema not found")
	}
	if _, ok := r.Lookup("facility", schema.OperationUpdate); ok {
		t.Error("unregistered operation found")
	}
	if _, ok := r.Lookup("geozone", schema.OperationCreate); ok {
		t.Error("unregistered type found")
	}
}

func TestDefaultRegistry_CoversAllEntityFamilies(t *testing.T) {
	r := schema.DefaultRegistry()

	families := []string{"protectedArea", "activity", "facility", "geozone", "booking", "transaction", "policy"}
	for _, family := range families {
		for _, op := range []string{schema.OperationCreate, schema.OperationUpdate} {
			if _, ok := r.Lookup(family, op); !ok {
				t.Errorf("missing %s/%s", family, op)
			}
		}
	}
	if r.Len() != len(families)*2 {
		t.Errorf("expected %d schemas, got %d", len(families)*2, r.Len())
	}
}

func TestSchema_IsImmutable(t *testing.T) {
	if !schema.FacilityCreate.IsImmutable("facilityType") {
		t.Error("facilityType should be immutable")
	}
	if schema.FacilityCreate.IsImmutable("displayName") {
		t.Error("displayName should not be immutable")
	}
}
