package setq

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/setq/model"
	"github.com/hupe1980/setq/store"
)

// End is the Slice stop sentinel meaning "through the end of the
// collection".
const End = math.MaxInt

// Collection is a lazy query over one model: an accumulated set of filters,
// optional sort and slice parameters, and nothing else until a terminal
// operation (Count, Members, Instances, At) evaluates it against the store.
//
// Collections are immutable: every shaping call returns a new snapshot and
// never mutates its receiver, so one collection can be consumed through
// several terminal operations, or branched into refined queries, without
// any shared transient state.
type Collection struct {
	model   *model.Model
	store   store.Store
	logger  *Logger
	metrics MetricsCollector

	sources        []source
	pks            []string
	sort           *sortSpec
	slice          *sliceSpec
	skipExistCheck bool

	// err records the first parse fault. It is surfaced by Err and by every
	// terminal operation before any store round trip.
	err error

	// length memoizes the evaluated cardinality. Shaping calls clear it on
	// the snapshot they return.
	length *int64
}

// sortSpec holds normalized sort directives. by is already rewritten to its
// store-native wildcard form; an empty by with a non-nil spec sorts by the
// member value itself.
type sortSpec struct {
	by    string
	desc  bool
	alpha bool
	get   []string
}

// sliceSpec holds python-style half-open slice bounds. stop == End means
// "through the end". Negative bounds force full materialization.
type sliceSpec struct {
	start int
	stop  int
}

func (s *sliceSpec) negative() bool {
	return s.start < 0 || (s.stop < 0 && s.stop != End)
}

// New returns the full lazy collection of the model, evaluated against the
// given store when a terminal operation runs.
func New(m *model.Model, st store.Store, opts ...Option) *Collection {
	c := &Collection{
		model:   m,
		store:   st,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// clone returns a shallow snapshot with its own slice headers and a cleared
// length memo. Chainable methods mutate only the clone.
func (c *Collection) clone() *Collection {
	next := *c
	next.sources = append([]source(nil), c.sources...)
	next.pks = append([]string(nil), c.pks...)
	if c.sort != nil {
		s := *c.sort
		s.get = append([]string(nil), c.sort.get...)
		next.sort = &s
	}
	if c.slice != nil {
		s := *c.slice
		next.slice = &s
	}
	next.length = nil
	return &next
}

// setErr records the first parse fault on the snapshot.
func (c *Collection) setErr(err error) *Collection {
	if c.err == nil {
		c.err = err
	}
	return c
}

// Err returns the first fault recorded while shaping the collection, if
// any. Terminal operations return the same fault before touching the store.
func (c *Collection) Err() error { return c.err }

// Filter restricts the collection to instances matching key=value. The key
// uses `field[__subpath...][__suffix]` addressing; a key naming the primary
// key (optionally suffixed `__eq`, matched case-insensitively) filters on
// the pk directly. Filters accumulate and are combined by set intersection.
//
// Parsing happens eagerly; a malformed key is recorded on the returned
// snapshot and surfaced before any store access.
func (c *Collection) Filter(key string, value any) *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}

	if fieldIsPK(next.model, key) {
		pk, err := next.model.NormalizePK(value)
		if err != nil {
			return next.setErr(err)
		}
		next.pks = append(next.pks, pk)
		return next
	}

	pf, err := parseFilterKey(next.model, key, value)
	if err != nil {
		return next.setErr(err)
	}
	next.sources = append(next.sources, pf)
	return next
}

// IntersectSet adds a literal store set key to the intersection inputs.
// The key is treated as durable: the evaluator never deletes it.
func (c *Collection) IntersectSet(key string) *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}
	next.sources = append(next.sources, rawSetSource(key))
	return next
}

// SortBy orders the collection by the given field. A leading `-` selects
// descending order. Naming the primary key sorts the members themselves.
// Naming a declared field rewrites it to the field's store-native wildcard
// so the store fetches per-member values during its sort pass; anything
// else is pushed down as a raw store pattern.
func (c *Collection) SortBy(by string) *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}
	if next.sort == nil {
		next.sort = &sortSpec{}
	}

	if rest, ok := strings.CutPrefix(by, "-"); ok {
		next.sort.desc = true
		by = rest
	}

	switch {
	case next.model.FieldIsPK(by):
		// The final set already contains the pks; sort them directly.
		next.sort.by = ""
	default:
		next.sort.by = next.sortPattern(by)
	}
	return next
}

// SortAlpha selects lexicographic comparison instead of numeric for the
// store's sort pass.
func (c *Collection) SortAlpha() *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}
	if next.sort == nil {
		next.sort = &sortSpec{}
	}
	next.sort.alpha = true
	return next
}

// SortGet requests per-member value fetches during the sort pass. A bare
// declared field name is rewritten to its wildcard; `#` (the member itself)
// and explicit patterns pass through. Requesting values disables the
// pk-only shortcut, since the store must be able to address the member.
func (c *Collection) SortGet(patterns ...string) *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}
	if next.sort == nil {
		next.sort = &sortSpec{}
	}
	for _, p := range patterns {
		if p == "#" {
			next.sort.get = append(next.sort.get, p)
			continue
		}
		next.sort.get = append(next.sort.get, next.sortPattern(p))
	}
	return next
}

// sortPattern rewrites a declared field reference (including compound
// `field__sub` paths) to its sort wildcard, passing unknown references
// through as raw store patterns.
func (c *Collection) sortPattern(ref string) string {
	segments := strings.Split(ref, filterKeySeparator)
	if !c.model.HasField(segments[0]) {
		return ref
	}
	f, err := c.model.GetField(segments[0])
	if err != nil || len(segments) != f.FieldParts() {
		return ref
	}
	return f.SortWildcard(segments[1:]...)
}

// Slice restricts materialization to the half-open range [start, stop).
// Use End for stop to keep everything from start on. Non-negative bounds
// are pushed down to the store's native pagination; any negative bound
// falls back to full materialization and an in-memory re-slice.
//
// Count ignores the slice: it always reports the cardinality of the
// filtered collection.
func (c *Collection) Slice(start, stop int) *Collection {
	next := c.clone()
	if next.err != nil {
		return next
	}
	next.slice = &sliceSpec{start: start, stop: stop}
	return next
}

// SkipExistCheck makes Instances hydrate without verifying each primary key
// still exists. Cheaper, but handles may point at stale or absent records.
func (c *Collection) SkipExistCheck() *Collection {
	next := c.clone()
	next.skipExistCheck = true
	return next
}

// String describes the query shape without evaluating it. Materialization
// always goes through an explicit, context-taking terminal operation.
func (c *Collection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "setq.Collection(%s", c.model.Name())
	if n := len(c.sources); n > 0 {
		fmt.Fprintf(&b, ", filters=%d", n)
	}
	if len(c.pks) > 0 {
		fmt.Fprintf(&b, ", pks=%v", c.pks)
	}
	if c.sort != nil {
		fmt.Fprintf(&b, ", sort={by:%q desc:%t alpha:%t get:%d}", c.sort.by, c.sort.desc, c.sort.alpha, len(c.sort.get))
	}
	if c.slice != nil {
		if c.slice.stop == End {
			fmt.Fprintf(&b, ", slice=[%d:]", c.slice.start)
		} else {
			fmt.Fprintf(&b, ", slice=[%d:%d]", c.slice.start, c.slice.stop)
		}
	}
	if c.err != nil {
		fmt.Fprintf(&b, ", err=%v", c.err)
	}
	b.WriteString(")")
	return b.String()
}
