package store

import (
	"strings"

	"github.com/google/uuid"
)

// KeySeparator joins the segments of every store key.
const KeySeparator = ":"

// MakeKey builds a store key from its segments.
func MakeKey(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

// TempKey returns a fresh collision-resistant key for a temporary set,
// scoped under the given namespace. Concurrent evaluations never collide on
// temporary keys because each one draws its own random identifier.
func TempKey(namespace string) string {
	if namespace == "" {
		return MakeKey("tmp", uuid.NewString())
	}
	return MakeKey(namespace, "tmp", uuid.NewString())
}
