// Package keys builds the composite partition and sort keys used across the
// reservation tables.
package keys

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the segments of a composite key, e.g. "facility::bcparks_1".
const Separator = "::"

// Partition builds a partition key from a record schema and its scope,
// e.g. Partition("facility", "bcparks_1") -> "facility::bcparks_1".
func Partition(schema, scope string) string {
	return schema + Separator + scope
}

// Sort builds a sort key from a subtype and an allocated local identifier,
// e.g. Sort("campground", 6) -> "campground::6".
func Sort(subtype string, localID int64) string {
	return subtype + Separator + strconv.FormatInt(localID, 10)
}

// Join concatenates arbitrary key segments with the standard separator.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split returns the leading segment and the remainder of a composite key.
// A key without a separator returns the whole key and an empty remainder.
func Split(key string) (string, string) {
	head, rest, found := strings.Cut(key, Separator)
	if !found {
		return key, ""
	}
	return head, rest
}

// LocalID extracts the trailing integer identifier from a sort key built by
// Sort. It fails on keys whose last segment is not an integer.
func LocalID(sortKey string) (int64, error) {
	idx := strings.LastIndex(sortKey, Separator)
	if idx < 0 {
		return 0, fmt.Errorf("sort key %q has no local id segment", sortKey)
	}
	id, err := strconv.ParseInt(sortKey[idx+len(Separator):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sort key %q: %w", sortKey, err)
	}
	return id, nil
}
