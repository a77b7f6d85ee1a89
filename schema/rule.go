package schema

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// Verb is the mutation verb a field value is being written with.
type Verb string

const (
	// VerbSet overwrites a field value.
	VerbSet Verb = "set"

	// VerbAdd adds to a numeric field or set-typed field.
	VerbAdd Verb = "add"

	// VerbRemove removes a field from the record.
	VerbRemove Verb = "remove"
)

// Kind identifies one of the closed set of rule primitives.
type Kind int

const (
	// KindType checks the value's scalar type against an allowed set.
	KindType Kind = iota

	// KindInt checks the value is an integer, optionally allowing negatives.
	KindInt

	// KindRange checks a number against inclusive bounds.
	KindRange

	// KindEnum checks string membership in a fixed set.
	KindEnum

	// KindArray checks element type and optional length bounds.
	KindArray

	// KindObject recurses into nested field rules.
	KindObject

	// KindEmail checks email format.
	KindEmail

	// KindPhone checks phone number format.
	KindPhone

	// KindCurrency checks a fixed two-decimal amount, non-negative by default.
	KindCurrency

	// KindGeopoint checks a {lat, lng} pair within valid ranges.
	KindGeopoint

	// KindEnvelope checks a {sw, ne} bounding envelope of geopoints.
	KindEnvelope

	// KindISODate checks an ISO-8601 calendar date (2006-01-02).
	KindISODate

	// KindISODateTime checks an RFC 3339 datetime.
	KindISODateTime

	// KindISODuration checks an ISO-8601 duration (P1Y2M3DT4H5M6S).
	KindISODuration

	// KindTimeOfDay checks a 24h clock time (HH:MM).
	KindTimeOfDay

	// KindVerbs restricts which mutation verbs may touch the field.
	KindVerbs
)

// Rule is one validation primitive plus its parameters. Rules are composed
// per field into an ordered list; every rule must pass.
type Rule struct {
	Kind Kind

	// Types lists allowed scalar type names for KindType:
	// "string", "number", "boolean", "list", "map".
	Types []string

	// AllowNegative permits negative values for KindInt and KindCurrency.
	AllowNegative bool

	// Min and Max are the inclusive bounds for KindRange.
	Min, Max float64

	// Enum lists allowed values for KindEnum.
	Enum []string

	// Elem is the required element type name for KindArray.
	Elem string

	// MinLen and MaxLen bound KindArray length; MaxLen 0 means unbounded.
	MinLen, MaxLen int

	// Fields holds the nested rules for KindObject.
	Fields map[string]FieldRule

	// Verbs lists the mutation verbs allowed by KindVerbs.
	Verbs []Verb
}

// Type builds a scalar type membership rule.
func Type(types ...string) Rule { return Rule{Kind: KindType, Types: types} }

// Int builds a non-negative integer rule.
func Int() Rule { return Rule{Kind: KindInt} }

// SignedInt builds an integer rule that permits negative values.
func SignedInt() Rule { return Rule{Kind: KindInt, AllowNegative: true} }

// Range builds an inclusive numeric range rule.
func Range(min, max float64) Rule { return Rule{Kind: KindRange, Min: min, Max: max} }

// Enum builds a string membership rule.
func Enum(values ...string) Rule { return Rule{Kind: KindEnum, Enum: values} }

// Array builds an array shape rule. maxLen 0 leaves the upper bound open.
func Array(elem string, minLen, maxLen int) Rule {
	return Rule{Kind: KindArray, Elem: elem, MinLen: minLen, MaxLen: maxLen}
}

// Object builds a nested object shape rule.
func Object(fields map[string]FieldRule) Rule { return Rule{Kind: KindObject, Fields: fields} }

// Email builds an email format rule.
func Email() Rule { return Rule{Kind: KindEmail} }

// Phone builds a phone number format rule.
func Phone() Rule { return Rule{Kind: KindPhone} }

// Currency builds a two-decimal non-negative amount rule.
func Currency() Rule { return Rule{Kind: KindCurrency} }

// SignedCurrency builds a two-decimal amount rule permitting negatives
// (refunds, adjustments).
func SignedCurrency() Rule { return Rule{Kind: KindCurrency, AllowNegative: true} }

// Geopoint builds a {lat, lng} rule.
func Geopoint() Rule { return Rule{Kind: KindGeopoint} }

// Envelope builds a {sw, ne} bounding envelope rule.
func Envelope() Rule { return Rule{Kind: KindEnvelope} }

// ISODate builds a calendar date rule.
func ISODate() Rule { return Rule{Kind: KindISODate} }

// ISODateTime builds an RFC 3339 datetime rule.
func ISODateTime() Rule { return Rule{Kind: KindISODateTime} }

// ISODuration builds an ISO-8601 duration rule.
func ISODuration() Rule { return Rule{Kind: KindISODuration} }

// TimeOfDay builds a 24h HH:MM rule.
func TimeOfDay() Rule { return Rule{Kind: KindTimeOfDay} }

// Verbs builds a mutation verb allow-list rule.
func Verbs(verbs ...Verb) Rule { return Rule{Kind: KindVerbs, Verbs: verbs} }

var (
	emailRe     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe     = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{5,19}$`)
	currencyRe  = regexp.MustCompile(`^-?\d+\.\d{2}$`)
	durationRe  = regexp.MustCompile(`^P(?:\d+Y)?(?:\d+M)?(?:\d+W)?(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+(?:\.\d+)?S)?)?$`)
	timeOfDayRe = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)
)

// Check applies the rule to a single field value under the given verb.
// A nil error means the rule passed.
func (r Rule) Check(field string, value any, verb Verb) error {
	switch r.Kind {
	case KindType:
		return r.checkType(field, value)
	case KindInt:
		return r.checkInt(field, value)
	case KindRange:
		return r.checkRange(field, value)
	case KindEnum:
		return r.checkEnum(field, value)
	case KindArray:
		return r.checkArray(field, value)
	case KindObject:
		return r.checkObject(field, value, verb)
	case KindEmail:
		return r.checkPattern(field, value, emailRe, "not a valid email address")
	case KindPhone:
		return r.checkPattern(field, value, phoneRe, "not a valid phone number")
	case KindCurrency:
		return r.checkCurrency(field, value)
	case KindGeopoint:
		return checkGeopoint(field, value)
	case KindEnvelope:
		return r.checkEnvelope(field, value)
	case KindISODate:
		return r.checkTimeLayout(field, value, "2006-01-02", "not an ISO date")
	case KindISODateTime:
		return r.checkTimeLayout(field, value, time.RFC3339, "not an ISO datetime")
	case KindISODuration:
		return r.checkDuration(field, value)
	case KindTimeOfDay:
		return r.checkPattern(field, value, timeOfDayRe, "not a valid time of day")
	case KindVerbs:
		return r.checkVerb(field, verb)
	}
	return failf(field, "unknown rule kind %d", r.Kind)
}

func (r Rule) checkType(field string, value any) error {
	got := typeName(value)
	for _, want := range r.Types {
		if got == want {
			return nil
		}
	}
	return failf(field, "type %s not in %v", got, r.Types)
}

func (r Rule) checkInt(field string, value any) error {
	n, ok := asNumber(value)
	if !ok {
		return failf(field, "expected an integer, got %s", typeName(value))
	}
	if n != math.Trunc(n) {
		return failf(field, "expected an integer, got %v", n)
	}
	if n < 0 && !r.AllowNegative {
		return failf(field, "negative value %v not allowed", n)
	}
	return nil
}

func (r Rule) checkRange(field string, value any) error {
	n, ok := asNumber(value)
	if !ok {
		return failf(field, "expected a number, got %s", typeName(value))
	}
	if n < r.Min || n > r.Max {
		return failf(field, "value %v outside range [%v, %v]", n, r.Min, r.Max)
	}
	return nil
}

func (r Rule) checkEnum(field string, value any) error {
	s, ok := value.(string)
	if !ok {
		return failf(field, "expected a string, got %s", typeName(value))
	}
	for _, allowed := range r.Enum {
		if s == allowed {
			return nil
		}
	}
	return failf(field, "value %q not in %v", s, r.Enum)
}

func (r Rule) checkArray(field string, value any) error {
	list, ok := value.([]any)
	if !ok {
		return failf(field, "expected a list, got %s", typeName(value))
	}
	if len(list) < r.MinLen {
		return failf(field, "length %d below minimum %d", len(list), r.MinLen)
	}
	if r.MaxLen > 0 && len(list) > r.MaxLen {
		return failf(field, "length %d above maximum %d", len(list), r.MaxLen)
	}
	for i, elem := range list {
		if got := typeName(elem); got != r.Elem {
			return failf(field, "element %d has type %s, want %s", i, got, r.Elem)
		}
	}
	return nil
}

func (r Rule) checkObject(field string, value any, verb Verb) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return failf(field, "expected an object, got %s", typeName(value))
	}
	for name, fr := range r.Fields {
		nested, present := obj[name]
		if !present {
			if fr.Mandatory {
				return &MissingFieldError{Field: field + "." + name}
			}
			continue
		}
		if err := fr.Check(field+"."+name, nested, verb); err != nil {
			return err
		}
	}
	return nil
}

func (r Rule) checkPattern(field string, value any, re *regexp.Regexp, reason string) error {
	s, ok := value.(string)
	if !ok {
		return failf(field, "expected a string, got %s", typeName(value))
	}
	if !re.MatchString(s) {
		return failf(field, "%s: %q", reason, s)
	}
	return nil
}

func (r Rule) checkCurrency(field string, value any) error {
	switch v := value.(type) {
	case string:
		if !currencyRe.MatchString(v) {
			return failf(field, "not a currency amount: %q", v)
		}
		if !r.AllowNegative && v[0] == '-' {
			return failf(field, "negative amount %q not allowed", v)
		}
		return nil
	default:
		n, ok := asNumber(value)
		if !ok {
			return failf(field, "expected a currency amount, got %s", typeName(value))
		}
		cents := n * 100
		if math.Abs(cents-math.Round(cents)) > 1e-9 {
			return failf(field, "amount %v has more than 2 decimal places", n)
		}
		if n < 0 && !r.AllowNegative {
			return failf(field, "negative amount %v not allowed", n)
		}
		return nil
	}
}

func checkGeopoint(field string, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return failf(field, "expected a geopoint object, got %s", typeName(value))
	}
	lat, ok := asNumber(obj["lat"])
	if !ok {
		return failf(field, "geopoint missing numeric lat")
	}
	lng, ok := asNumber(obj["lng"])
	if !ok {
		return failf(field, "geopoint missing numeric lng")
	}
	if lat < -90 || lat > 90 {
		return failf(field, "latitude %v outside [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return failf(field, "longitude %v outside [-180, 180]", lng)
	}
	return nil
}

func (r Rule) checkEnvelope(field string, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return failf(field, "expected an envelope object, got %s", typeName(value))
	}
	sw, ok := obj["sw"].(map[string]any)
	if !ok {
		return failf(field, "envelope missing sw geopoint")
	}
	ne, ok := obj["ne"].(map[string]any)
	if !ok {
		return failf(field, "envelope missing ne geopoint")
	}
	if err := checkGeopoint(field+".sw", sw); err != nil {
		return err
	}
	if err := checkGeopoint(field+".ne", ne); err != nil {
		return err
	}
	swLat, _ := asNumber(sw["lat"])
	swLng, _ := asNumber(sw["lng"])
	neLat, _ := asNumber(ne["lat"])
	neLng, _ := asNumber(ne["lng"])
	if swLat > neLat || swLng > neLng {
		return failf(field, "envelope sw corner exceeds ne corner")
	}
	return nil
}

func (r Rule) checkTimeLayout(field string, value any, layout, reason string) error {
	s, ok := value.(string)
	if !ok {
		return failf(field, "expected a string, got %s", typeName(value))
	}
	if _, err := time.Parse(layout, s); err != nil {
		return failf(field, "%s: %q", reason, s)
	}
	return nil
}

func (r Rule) checkDuration(field string, value any) error {
	s, ok := value.(string)
	if !ok {
		return failf(field, "expected a string, got %s", typeName(value))
	}
	// "P" and "PT" match the regexp but carry no components.
	if s == "P" || s == "PT" || !durationRe.MatchString(s) {
		return failf(field, "not an ISO duration: %q", s)
	}
	return nil
}

func (r Rule) checkVerb(field string, verb Verb) error {
	for _, allowed := range r.Verbs {
		if verb == allowed {
			return nil
		}
	}
	return failf(field, "verb %q not allowed, want one of %v", verb, r.Verbs)
}

// typeName maps a decoded JSON value to its schema type name.
func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// asNumber widens the numeric types produced by JSON decoding and tests.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
