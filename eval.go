package setq

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/setq/store"
)

// singlePK returns the lone accumulated primary-key filter value, if any.
// ok reports whether a pk filter is present at all, so an empty-string pk
// stays distinguishable from "no pk filter". More than one distinct value
// is a contradiction: the query matches nothing, which is reported as
// empty, not as a fault.
func (c *Collection) singlePK() (pk string, ok bool, contradictory bool) {
	for _, p := range c.pks {
		if !ok {
			pk, ok = p, true
			continue
		}
		if p != pk {
			return "", false, true
		}
	}
	return pk, ok, false
}

// sortOptions assembles the push-down sort parameters for this evaluation.
// With a primary-key filter the ordering directives are dropped (ordering a
// known singleton is free), but value-fetch patterns survive since they
// change what the store returns. Returns nil when a plain unordered member
// fetch suffices.
func (c *Collection) sortOptions(hasPK bool) *store.SortOptions {
	var opts *store.SortOptions

	if c.sort != nil {
		if !hasPK {
			opts = &store.SortOptions{
				By:    c.sort.by,
				Get:   append([]string(nil), c.sort.get...),
				Desc:  c.sort.desc,
				Alpha: c.sort.alpha,
			}
		} else if len(c.sort.get) > 0 {
			// Ordering a known singleton is pointless, and the pk may not
			// compare numerically; a By pattern without `*` disables the
			// store's ordering pass while the value fetch still runs.
			opts = &store.SortOptions{
				By:  "nosort",
				Get: append([]string(nil), c.sort.get...),
			}
		}
	}

	if c.slice != nil && !c.slice.negative() {
		if opts == nil {
			opts = &store.SortOptions{}
		}
		count := int64(-1)
		if c.slice.stop != End {
			count = int64(c.slice.stop - c.slice.start)
		}
		opts.Limit = &store.Limit{Start: int64(c.slice.start), Count: count}
	}

	return opts
}

// resolveSources turns the accumulated sources into backing-store set keys.
// Returned keys are unique and ordered by first appearance; temps lists the
// subset created solely for this evaluation, which the caller must delete
// even when resolution fails partway.
func (c *Collection) resolveSources(ctx context.Context) (keys []string, temps []string, err error) {
	seen := make(map[string]struct{})
	add := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	for _, src := range c.sources {
		switch s := src.(type) {
		case rawSetSource:
			add(string(s))
		case parsedFilter:
			refs, rerr := s.index.FilteredKeys(ctx, c.store, s.field, s.suffix, s.extraParts, s.value)
			if rerr != nil {
				return keys, temps, rerr
			}
			for _, ref := range refs {
				if ref.Temporary {
					temps = append(temps, ref.Key)
				}
				if ref.Kind != store.KindSet {
					return keys, temps, &IndexContractError{
						Index: fmt.Sprintf("%T", s.index),
						Key:   ref.Key,
						Kind:  ref.Kind,
					}
				}
				add(ref.Key)
			}
		}
	}

	return keys, temps, nil
}

// finalSet reduces the resolved sets, plus an optional primary-key
// singleton, to the single set the terminal retrieval runs against.
//
// pkOnly is true when the lone primary key answers the query without any
// store set: pk present, no other filters, and no per-member value fetch
// requested. In that case no temporary key was ever created.
//
// temps lists every temporary key created so far, including final itself
// when it is temporary; they are valid (and required) even on error.
func (c *Collection) finalSet(ctx context.Context, pk string, hasPK bool, sortOpts *store.SortOptions) (final string, pkOnly bool, temps []string, err error) {
	resolved, temps, err := c.resolveSources(ctx)
	if err != nil {
		return "", false, temps, err
	}

	if hasPK && len(resolved) == 0 && !sortOpts.FetchesValues() {
		return "", true, temps, nil
	}

	all := resolved
	if hasPK {
		// A fresh singleton set makes the pk participate in intersection
		// and gives the sort pass an addressable member for value fetches.
		singleton := store.TempKey(c.model.Namespace())
		if _, serr := c.store.SAdd(ctx, singleton, pk); serr != nil {
			return "", false, temps, serr
		}
		temps = append(temps, singleton)
		all = append(all, singleton)
	}

	switch len(all) {
	case 0:
		// No filters at all: the model's full-collection set.
		return c.model.CollectionKey(), false, temps, nil
	case 1:
		return all[0], false, temps, nil
	default:
		dest := store.TempKey(c.model.Namespace())
		temps = append(temps, dest)
		if _, ierr := c.store.SInterStore(ctx, dest, all...); ierr != nil {
			return "", false, temps, ierr
		}
		c.logger.Debug("intersected filter sets", "inputs", len(all), "dest", dest)
		return dest, false, temps, nil
	}
}

// deleteTemps removes the temporary keys of one evaluation. Best effort:
// the caller joins a failure here with the evaluation's own fault instead
// of masking it.
func (c *Collection) deleteTemps(ctx context.Context, temps []string) error {
	if len(temps) == 0 {
		return nil
	}
	c.logger.Debug("deleting temporary keys", "count", len(temps))
	c.metrics.RecordTempKeysDeleted(len(temps))
	if _, err := c.store.Del(ctx, temps...); err != nil {
		return fmt.Errorf("deleting temporary keys: %w", err)
	}
	return nil
}

// evalCount is the length-only fast path. Cardinality is order-independent,
// so no sort or slice parameters are ever pushed down here.
func (c *Collection) evalCount(ctx context.Context) (n int64, err error) {
	pk, hasPK, contradictory := c.singlePK()
	if contradictory {
		return 0, nil
	}
	if hasPK && len(c.sources) == 0 {
		exists, eerr := c.model.PKExists(ctx, c.store, pk)
		if eerr != nil {
			return 0, eerr
		}
		if !exists {
			return 0, nil
		}
	}

	var temps []string
	defer func() {
		err = errors.Join(err, c.deleteTemps(ctx, temps))
	}()

	final, pkOnly, temps, err := c.finalSet(ctx, pk, hasPK, nil)
	if err != nil {
		return 0, err
	}
	if pkOnly {
		return 1, nil
	}
	return c.store.SCard(ctx, final)
}

// evalMembers is the materialization path: resolve, combine, retrieve,
// clean up. The deferred temp-key deletion runs on every exit, fault or
// empty result included.
func (c *Collection) evalMembers(ctx context.Context) (members []string, err error) {
	pk, hasPK, contradictory := c.singlePK()
	if contradictory {
		c.logger.Debug("contradictory primary-key filters", "model", c.model.Name())
		return []string{}, nil
	}
	if hasPK && len(c.sources) == 0 {
		exists, eerr := c.model.PKExists(ctx, c.store, pk)
		if eerr != nil {
			return nil, eerr
		}
		if !exists {
			return []string{}, nil
		}
	}

	// An empty push-down window needs no store work at all.
	if c.slice != nil && !c.slice.negative() && c.slice.stop != End && c.slice.stop <= c.slice.start {
		return []string{}, nil
	}

	sortOpts := c.sortOptions(hasPK)

	var temps []string
	defer func() {
		err = errors.Join(err, c.deleteTemps(ctx, temps))
	}()

	final, pkOnly, temps, err := c.finalSet(ctx, pk, hasPK, sortOpts)
	if err != nil {
		return nil, err
	}

	switch {
	case pkOnly:
		members = []string{pk}
		if c.slice != nil {
			members = pythonSlice(members, c.slice)
		}
	case sortOpts != nil:
		members, err = c.store.Sort(ctx, final, *sortOpts)
	default:
		members, err = c.store.SMembers(ctx, final)
	}
	if err != nil {
		return nil, err
	}

	// Negative bounds were never pushed down; re-slice the materialized
	// result client-side.
	if c.slice != nil && c.slice.negative() {
		members = pythonSlice(members, c.slice)
	}

	return members, nil
}

// pythonSlice applies half-open slice bounds with python semantics:
// negative bounds count from the end, out-of-range bounds clamp.
func pythonSlice(members []string, s *sliceSpec) []string {
	n := len(members)

	start, stop := s.start, s.stop
	if stop == End {
		stop = n
	}
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
		if stop < 0 {
			stop = 0
		}
	}
	if start > n {
		start = n
	}
	if stop > n {
		stop = n
	}
	if stop < start {
		stop = start
	}

	return members[start:stop]
}
