package schema

// Schemas for the park inventory entities: protected areas, activities,
// facilities, and geozones. Create schemas carry the mandatory fields and
// the immutable discriminators; update schemas apply the same rules to any
// field present but demand nothing.

var statusStates = []string{"open", "closed"}

// FacilityTypes are the facility subtypes; each gets its own identifier
// sequence within a park.
var FacilityTypes = []string{"campground", "trail", "parking", "day-use"}

// ActivityTypes are the bookable activity subtypes.
var ActivityTypes = []string{"frontcountry camp", "backcountry camp", "day use", "walk-in camp", "canoe"}

// ProtectedAreaCreate validates new protected area records.
var ProtectedAreaCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"orcs"},
	Fields: map[string]FieldRule{
		"orcs":        {Mandatory: true, Rules: []Rule{Type("string")}},
		"displayName": {Mandatory: true, Rules: []Rule{Type("string")}},
		"status": {Rules: []Rule{Type("map")}, Nested: map[string]FieldRule{
			"state":       {Mandatory: true, Rules: []Rule{Enum(statusStates...)}},
			"stateReason": {Rules: []Rule{Type("string")}},
		}},
		"envelope":    {Rules: []Rule{Envelope()}},
		"coordinates": {Rules: []Rule{Geopoint()}},
		"searchTerms": {Rules: []Rule{Array("string", 0, 0), Verbs(VerbSet, VerbAdd)}},
	},
}

// ProtectedAreaUpdate validates partial protected area updates.
var ProtectedAreaUpdate = weaken(ProtectedAreaCreate)

// ActivityCreate validates new activity records.
var ActivityCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"activityType"},
	Fields: map[string]FieldRule{
		"displayName":  {Mandatory: true, Rules: []Rule{Type("string")}},
		"activityType": {Mandatory: true, Rules: []Rule{Enum(ActivityTypes...)}},
		"status": {Rules: []Rule{Type("map")}, Nested: map[string]FieldRule{
			"state": {Mandatory: true, Rules: []Rule{Enum(statusStates...)}},
		}},
		"isVisible":        {Rules: []Rule{Type("boolean")}},
		"capacity":         {Rules: []Rule{Int(), Verbs(VerbSet, VerbAdd)}},
		"checkInTime":      {Rules: []Rule{TimeOfDay()}},
		"checkOutTime":     {Rules: []Rule{TimeOfDay()}},
		"seasonStart":      {Rules: []Rule{ISODate()}},
		"seasonEnd":        {Rules: []Rule{ISODate()}},
		"contactEmail":     {Rules: []Rule{Email()}},
		"geopoint":         {Rules: []Rule{Geopoint()}},
		"adjacentGeozones": {Rules: []Rule{Array("string", 0, 0)}},
		"bookablePartyMin": {Rules: []Rule{Int(), Range(1, 100)}},
		"bookablePartyMax": {Rules: []Rule{Int(), Range(1, 100)}},
	},
}

// ActivityUpdate validates partial activity updates.
var ActivityUpdate = weaken(ActivityCreate)

// FacilityCreate validates new facility records.
var FacilityCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"facilityType"},
	Fields: map[string]FieldRule{
		"displayName":  {Mandatory: true, Rules: []Rule{Type("string")}},
		"facilityType": {Mandatory: true, Rules: []Rule{Enum(FacilityTypes...)}},
		"status": {Rules: []Rule{Type("map")}, Nested: map[string]FieldRule{
			"state":       {Mandatory: true, Rules: []Rule{Enum(statusStates...)}},
			"stateReason": {Rules: []Rule{Type("string")}},
		}},
		"isVisible":          {Rules: []Rule{Type("boolean")}},
		"geopoint":           {Rules: []Rule{Geopoint()}},
		"bookingOpeningHour": {Rules: []Rule{Int(), Range(0, 23)}},
		"bookingDaysAhead":   {Rules: []Rule{Int(), Range(0, 365)}},
		"bookableHolds":      {Rules: []Rule{Int(), Verbs(VerbSet, VerbAdd)}},
		"contactPhone":       {Rules: []Rule{Phone()}},
	},
}

// FacilityUpdate validates partial facility updates.
var FacilityUpdate = weaken(FacilityCreate)

// GeozoneCreate validates new geozone records.
var GeozoneCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"geozoneType"},
	Fields: map[string]FieldRule{
		"displayName": {Mandatory: true, Rules: []Rule{Type("string")}},
		"geozoneType": {Mandatory: true, Rules: []Rule{Type("string")}},
		"envelope":    {Mandatory: true, Rules: []Rule{Envelope()}},
		"centroid":    {Rules: []Rule{Geopoint()}},
		"searchTerms": {Rules: []Rule{Array("string", 0, 0), Verbs(VerbSet, VerbAdd)}},
	},
}

// GeozoneUpdate validates partial geozone updates.
var GeozoneUpdate = weaken(GeozoneCreate)

// weaken derives an update schema from a create schema: same rules, no
// mandatory fields. Immutable fields stay rejected on update.
func weaken(create Schema) Schema {
	update := create
	update.Fields = make(map[string]FieldRule, len(create.Fields))
	for name, fr := range create.Fields {
		fr.Mandatory = false
		update.Fields[name] = fr
	}
	return update
}
