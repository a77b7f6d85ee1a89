package store

import "fmt"

// Op is the operation a write intent performs.
type Op int

const (
	// OpCreate inserts a new record, failing if the key exists.
	OpCreate Op = iota

	// OpUpdate applies a partial attribute delta to an existing record.
	OpUpdate

	// OpDelete removes a record, failing if the key doesn't exist.
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Key is the two-part composite key identifying a record. The partition
// key groups related records; the sort key distinguishes within the group.
// Together they are globally unique and immutable after creation.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string { return k.PK + "/" + k.SK }

// Record is one candidate mutation handed to the compiler. Attributes are
// written with the set verb; Additions with the add verb; Removals drop
// fields entirely. Creates use Attributes only.
type Record struct {
	Key             Key
	Attributes      map[string]any
	Additions       map[string]any
	Removals        []string
	ExpectedVersion int64
}

// WriteIntent is a normalized, store-agnostic description of one atomic
// write plus its concurrency precondition. Built by Compile, consumed
// read-only by Commit.
type WriteIntent struct {
	Key        Key
	Op         Op
	Attributes map[string]any
	Additions  map[string]any
	Removals   []string

	// ExpectedVersion is the version the stored record must still have for
	// the write to apply. Only meaningful when CheckVersion is set.
	ExpectedVersion int64

	// CheckVersion injects a version-match condition into the write.
	CheckVersion bool
}
