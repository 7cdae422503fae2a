// Package store defines the contract between the lazy collection evaluator
// and a backing key-value store that exposes set, sort and intersection
// primitives.
//
// Implementations can wrap a remote store (Redis-like) or run embedded
// (see store/memstore). Every operation is a blocking round trip and takes
// a context; the evaluator issues calls strictly sequentially.
package store

import "context"

// KeyKind identifies the data structure an index key points at.
// The collection evaluator only accepts KindSet from index resolution.
type KeyKind string

const (
	// KindSet is a plain unordered set of members.
	KindSet KeyKind = "set"
	// KindString is a single string value.
	KindString KeyKind = "string"
)

// KeyRef is a resolved backing-store key as reported by an index capability.
// Temporary keys exist solely to serve one evaluation and are deleted by the
// evaluator once all reads against them complete.
type KeyRef struct {
	Key       string
	Kind      KeyKind
	Temporary bool
}

// Store is the set-store surface consumed by the collection evaluator and
// the model layer.
//
// Semantics follow standard key-value set-store conventions:
//   - cardinality and member queries on a missing key behave as an empty set
//   - SInterStore/SUnionStore remove the destination key when the result is
//     empty, so a missing destination always means an empty result
//   - writing a set operation against a string key (or vice versa) fails
//     with ErrWrongType
type Store interface {
	// SAdd adds members to the set at key, creating it if needed.
	// Returns the number of members that were not already present.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)

	// SRem removes members from the set at key.
	// Returns the number of members that were present.
	SRem(ctx context.Context, key string, members ...string) (int64, error)

	// SCard returns the cardinality of the set at key.
	SCard(ctx context.Context, key string) (int64, error)

	// SMembers returns all members of the set at key, in store-defined order.
	SMembers(ctx context.Context, key string) ([]string, error)

	// SIsMember reports whether member is in the set at key.
	SIsMember(ctx context.Context, key string, member string) (bool, error)

	// SInterStore stores the intersection of the sets at keys into dst and
	// returns the resulting cardinality.
	SInterStore(ctx context.Context, dst string, keys ...string) (int64, error)

	// SUnionStore stores the union of the sets at keys into dst and returns
	// the resulting cardinality.
	SUnionStore(ctx context.Context, dst string, keys ...string) (int64, error)

	// Sort returns the members of the set at key ordered, sliced and
	// optionally dereferenced according to opts.
	Sort(ctx context.Context, key string, opts SortOptions) ([]string, error)

	// Del removes the given keys. Returns the number of keys that existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Get returns the string value at key. The second return value is false
	// when the key does not exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a string value at key.
	Set(ctx context.Context, key string, value string) error
}
