package schema

// Schemas for the reservation commerce entities: bookings, transactions,
// and policies.

// Booking status values and their legal progression. A booking starts
// "in progress" and moves to "completed" or "cancelled" exactly once.
const (
	BookingInProgress = "in progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

var bookingStatuses = []string{BookingInProgress, BookingCompleted, BookingCancelled}

// BookingCreate validates new booking records.
var BookingCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"sessionId", "activity"},
	Fields: map[string]FieldRule{
		"bookingStatus": {Mandatory: true, Rules: []Rule{Enum(bookingStatuses...)}},
		"sessionId":     {Mandatory: true, Rules: []Rule{Type("string")}},
		"activity":      {Mandatory: true, Rules: []Rule{Type("string")}},
		"partySize":     {Mandatory: true, Rules: []Rule{Int(), Range(1, 100)}},
		"startDate":     {Mandatory: true, Rules: []Rule{ISODate()}},
		"endDate":       {Mandatory: true, Rules: []Rule{ISODate()}},
		"holdExpires":   {Rules: []Rule{ISODateTime()}},
		"contact": {Rules: []Rule{Type("map")}, Nested: map[string]FieldRule{
			"email": {Mandatory: true, Rules: []Rule{Email()}},
			"phone": {Rules: []Rule{Phone()}},
		}},
		"rateClass": {Rules: []Rule{Enum("standard", "senior", "accessible")}},
	},
}

// BookingUpdate validates partial booking updates.
var BookingUpdate = weaken(BookingCreate)

// TransactionCreate validates new payment transaction records.
var TransactionCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"booking"},
	Fields: map[string]FieldRule{
		"booking":     {Mandatory: true, Rules: []Rule{Type("string")}},
		"amount":      {Mandatory: true, Rules: []Rule{Currency()}},
		"refund":      {Rules: []Rule{SignedCurrency()}},
		"currency":    {Rules: []Rule{Enum("CAD", "USD")}},
		"kind":        {Mandatory: true, Rules: []Rule{Enum("payment", "refund", "adjustment")}},
		"processedAt": {Rules: []Rule{ISODateTime()}},
	},
}

// TransactionUpdate validates partial transaction updates.
var TransactionUpdate = weaken(TransactionCreate)

// PolicyCreate validates new booking/change/cancellation policy records.
var PolicyCreate = Schema{
	FailFast:             true,
	AutoTimestamp:        true,
	AutoVersion:          true,
	EnforceSerialUpdates: true,
	Immutable:            []string{"policyType"},
	Fields: map[string]FieldRule{
		"displayName":   {Mandatory: true, Rules: []Rule{Type("string")}},
		"policyType":    {Mandatory: true, Rules: []Rule{Enum("booking", "change", "cancellation")}},
		"cutoffBefore":  {Rules: []Rule{ISODuration()}},
		"noticeWindow":  {Rules: []Rule{ISODuration()}},
		"feePercent":    {Rules: []Rule{Range(0, 100)}},
		"flatFee":       {Rules: []Rule{Currency()}},
		"effectiveDate": {Rules: []Rule{ISODate()}},
		"expiryDate":    {Rules: []Rule{ISODate()}},
	},
}

// PolicyUpdate validates partial policy updates.
var PolicyUpdate = weaken(PolicyCreate)
