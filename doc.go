// Package setq provides lazy query collections over a key-value store that
// exposes set, sort and intersection primitives.
//
// A Collection accumulates equality-style filters, sort directives and slice
// bounds without touching the store; only a terminal operation (Count,
// Members, Instances, At) computes the minimal sequence of store calls:
// indexes resolve filters to set keys, the sets are intersected store-side
// when there is more than one, the final set is counted, fetched or sorted
// with the slice pushed down, and every temporary key created along the way
// is deleted before the call returns.
//
// # Quick Start
//
//	people := model.MustNew("person",
//	    model.WithNamespace("app"),
//	    model.WithFields(
//	        model.StringField("status", model.Indexable()),
//	        model.StringField("country", model.Indexable()),
//	        model.StringField("created_at", model.Indexable()),
//	    ),
//	)
//
//	st := memstore.New()
//	ctx := context.Background()
//
//	pks, _ := setq.New(people, st).
//	    Filter("status", "active").
//	    Filter("country", "US").
//	    SortBy("-created_at").
//	    Slice(0, 10).
//	    Members(ctx)
//
// Collections are immutable: every shaping call returns a new snapshot, so
// a collection can be branched, counted and iterated freely without one
// access corrupting another's parameters.
//
// # Fast paths
//
//   - Count issues a single cardinality query; it never sorts or fetches.
//   - A lone primary-key filter needs one existence check and no set
//     materialization at all.
//   - Non-negative slices ride the store's native pagination; negative
//     bounds fall back to slicing the materialized result.
//
// # Result shapes
//
// Members returns raw primary keys. Instances hydrates each key through the
// model, verifying existence per object unless SkipExistCheck was chained.
package setq
