package store

// Limit restricts a Sort result to Count members starting at offset Start.
// A Count of -1 means "through the end".
type Limit struct {
	Start int64
	Count int64
}

// SortOptions mirrors the native sort-and-fetch operation of the backing
// store. The evaluator pushes sort and slice parameters down through it
// instead of materializing and ordering client-side.
type SortOptions struct {
	// By is a key pattern used to fetch the per-member weight: each `*` in
	// the pattern is replaced by the member. Empty means sort by the member
	// value itself. A pattern without `*` disables sorting (the store
	// returns members in natural order).
	By string

	// Get is a list of patterns dereferenced per member after sorting.
	// The special pattern `#` yields the member itself. When non-empty the
	// result contains the fetched values, flattened in pattern order.
	Get []string

	// Desc reverses the order.
	Desc bool

	// Alpha selects lexicographic comparison instead of numeric.
	Alpha bool

	// Limit slices the ordered result store-side.
	Limit *Limit
}

// FetchesValues reports whether the sort reads per-member data beyond the
// member identifier itself. The evaluator uses this capability check to
// decide if a lone primary-key query still needs an addressable store set.
func (o *SortOptions) FetchesValues() bool {
	return o != nil && len(o.Get) > 0
}
