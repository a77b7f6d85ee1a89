package schema

// FieldRule binds one field to its ordered validation rules.
type FieldRule struct {
	// Mandatory fields must appear in every create payload.
	Mandatory bool

	// Rules run in order; every rule must pass.
	Rules []Rule

	// Nested holds sub-field rules for structured values. Checked after
	// Rules, against the value as a map.
	Nested map[string]FieldRule
}

// Check runs the field's rules against a value under the given verb.
// Removals only consult verb allow-list rules, since there is no value.
func (f FieldRule) Check(field string, value any, verb Verb) error {
	for _, r := range f.Rules {
		if verb == VerbRemove && r.Kind != KindVerbs {
			continue
		}
		if err := r.Check(field, value, verb); err != nil {
			return err
		}
	}
	if len(f.Nested) > 0 && verb != VerbRemove {
		return Object(f.Nested).Check(field, value, verb)
	}
	return nil
}

// Schema declares validation and persistence behavior for one entity type
// and operation. Fields absent from Fields pass through unvalidated.
type Schema struct {
	// FailFast stops at the first violation instead of collecting all.
	FailFast bool

	// AutoTimestamp injects creationDate/lastUpdated on compile.
	AutoTimestamp bool

	// AutoVersion manages the optimistic-concurrency version attribute.
	AutoVersion bool

	// EnforceSerialUpdates rejects updates lacking an expected version at
	// compile time.
	EnforceSerialUpdates bool

	// Immutable lists fields that may never change after creation.
	// Updates touching them are rejected by the compiler.
	Immutable []string

	// Fields maps field names to their rules.
	Fields map[string]FieldRule
}

// IsImmutable reports whether the named field is frozen after creation.
func (s Schema) IsImmutable(field string) bool {
	for _, f := range s.Immutable {
		if f == field {
			return true
		}
	}
	return false
}
