// Package schema declares the field validation rules applied to every
// record before it is compiled into write operations.
//
// Rules are a closed set of typed primitives ([Rule] with a [Kind]) rather
// than arbitrary predicate functions. A field binds an ordered list of
// rules plus an optional nested sub-schema via [FieldRule]; an entity type
// binds its fields, persistence flags, and immutable set via [Schema].
//
// Schemas are static per entity type and operation. Create schemas carry
// mandatory fields and immutable discriminators; update schemas apply the
// same rules to whatever fields are present but demand nothing. The
// [Registry] maps (entity type, operation) to its schema; [DefaultRegistry]
// preloads every entity family the reservation system persists.
//
// # Errors
//
// Violations surface as [ValidationError] or [MissingFieldError], both
// wrapping [ErrValidation] so callers can match the whole class with
// errors.Is.
package schema
