package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/openparks/corral/schema"
)

// Compile validates one or more candidate records against a schema and
// turns them into write intents. It is a pure transformation: no store
// access happens here, and validation failures never reach the writer.
func Compile(sch schema.Schema, op Op, recs ...Record) ([]WriteIntent, error) {
	intents := make([]WriteIntent, 0, len(recs))
	for i, rec := range recs {
		intent, err := compileOne(sch, op, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

func compileOne(sch schema.Schema, op Op, rec Record) (WriteIntent, error) {
	if rec.Key.PK == "" || rec.Key.SK == "" {
		return WriteIntent{}, &schema.ValidationError{Field: "key", Reason: "partition and sort key are required"}
	}

	switch op {
	case OpCreate:
		return compileCreate(sch, rec)
	case OpUpdate:
		return compileUpdate(sch, rec)
	case OpDelete:
		return WriteIntent{Key: rec.Key, Op: OpDelete}, nil
	}
	return WriteIntent{}, fmt.Errorf("corral: unsupported operation %v", op)
}

func compileCreate(sch schema.Schema, rec Record) (WriteIntent, error) {
	if len(rec.Additions) > 0 || len(rec.Removals) > 0 {
		return WriteIntent{}, &schema.ValidationError{Field: "key", Reason: "create accepts set attributes only"}
	}

	var violations []error

	// Every mandatory field must appear in the payload.
	for _, name := range sortedFields(sch.Fields) {
		fr := sch.Fields[name]
		if !fr.Mandatory {
			continue
		}
		if _, present := rec.Attributes[name]; !present {
			err := &schema.MissingFieldError{Field: name}
			if sch.FailFast {
				return WriteIntent{}, err
			}
			violations = append(violations, err)
		}
	}

	if err := checkFields(sch, rec.Attributes, schema.VerbSet, &violations); err != nil {
		return WriteIntent{}, err
	}
	if len(violations) > 0 {
		return WriteIntent{}, errors.Join(violations...)
	}

	attrs := copyAttrs(rec.Attributes)
	if sch.AutoTimestamp {
		now := time.Now().UTC().Format(time.RFC3339)
		attrs["creationDate"] = now
		attrs["lastUpdated"] = now
	}
	if sch.AutoVersion {
		attrs["version"] = int64(1)
	}

	return WriteIntent{Key: rec.Key, Op: OpCreate, Attributes: attrs}, nil
}

func compileUpdate(sch schema.Schema, rec Record) (WriteIntent, error) {
	if sch.EnforceSerialUpdates && rec.ExpectedVersion <= 0 {
		return WriteIntent{}, ErrVersionRequired
	}

	// Immutable fields are frozen at creation; touching one on update is a
	// compile-time rejection, not a store round trip.
	for _, name := range sch.Immutable {
		if _, ok := rec.Attributes[name]; ok {
			return WriteIntent{}, &schema.ValidationError{Field: name, Reason: "immutable after creation"}
		}
		if _, ok := rec.Additions[name]; ok {
			return WriteIntent{}, &schema.ValidationError{Field: name, Reason: "immutable after creation"}
		}
		for _, removed := range rec.Removals {
			if removed == name {
				return WriteIntent{}, &schema.ValidationError{Field: name, Reason: "immutable after creation"}
			}
		}
	}

	var violations []error
	if err := checkFields(sch, rec.Attributes, schema.VerbSet, &violations); err != nil {
		return WriteIntent{}, err
	}
	if err := checkFields(sch, rec.Additions, schema.VerbAdd, &violations); err != nil {
		return WriteIntent{}, err
	}
	for _, name := range rec.Removals {
		fr, known := sch.Fields[name]
		if !known {
			continue
		}
		if err := fr.Check(name, nil, schema.VerbRemove); err != nil {
			if sch.FailFast {
				return WriteIntent{}, err
			}
			violations = append(violations, err)
		}
	}
	if len(violations) > 0 {
		return WriteIntent{}, errors.Join(violations...)
	}

	attrs := copyAttrs(rec.Attributes)
	intent := WriteIntent{
		Key:        rec.Key,
		Op:         OpUpdate,
		Attributes: attrs,
		Additions:  copyAttrs(rec.Additions),
		Removals:   append([]string(nil), rec.Removals...),
	}

	if sch.AutoTimestamp {
		attrs["lastUpdated"] = time.Now().UTC().Format(time.RFC3339)
	}
	if sch.AutoVersion && rec.ExpectedVersion > 0 {
		attrs["version"] = rec.ExpectedVersion + 1
		intent.ExpectedVersion = rec.ExpectedVersion
		intent.CheckVersion = true
	}

	return intent, nil
}

// checkFields runs each present field through its rules. Fields without a
// rule pass through unvalidated. With FailFast the first violation is
// returned directly; otherwise violations accumulate.
func checkFields(sch schema.Schema, fields map[string]any, verb schema.Verb, violations *[]error) error {
	for _, name := range sortedFields(fields) {
		fr, known := sch.Fields[name]
		if !known {
			continue
		}
		if err := fr.Check(name, fields[name], verb); err != nil {
			if sch.FailFast {
				return err
			}
			*violations = append(*violations, err)
		}
	}
	return nil
}

func sortedFields[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
