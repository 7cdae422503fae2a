package setq

import (
	"context"
	"time"

	"github.com/hupe1980/setq/model"
)

// Count returns the cardinality of the filtered collection using the store's
// length-only fast path: no materialization, no sort, no value fetch.
// The result is memoized; a later Members or Instances call reuses it the
// other way around for free.
func (c *Collection) Count(ctx context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.length != nil {
		return *c.length, nil
	}

	start := time.Now()
	n, err := c.evalCount(ctx)
	c.metrics.RecordCount(time.Since(start), err)
	if err != nil {
		return 0, err
	}
	c.length = &n
	return n, nil
}

// Members materializes the collection and returns the raw primary keys. For
// a sorted request the order is significant; for an unordered fetch it is
// store-defined and must not be relied upon.
func (c *Collection) Members(ctx context.Context) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}

	start := time.Now()
	members, err := c.evalMembers(ctx)
	c.metrics.RecordMembers(len(members), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	// Materialization knows the length at zero extra cost, but a sliced
	// result is not the collection's cardinality, and with value-fetch
	// patterns the result is flattened per pattern, so the length is
	// memoized only for a plain unsliced member fetch.
	if c.slice == nil && (c.sort == nil || len(c.sort.get) == 0) {
		n := int64(len(members))
		c.length = &n
	}
	return members, nil
}

// Instances materializes the collection and hydrates every primary key into
// an instance handle. By default each hydration verifies the key still
// exists (a vanished key yields model.ErrNotExist); chain SkipExistCheck to
// construct handles without the per-object round trip.
func (c *Collection) Instances(ctx context.Context) ([]*model.Instance, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return nil, err
	}

	instances := make([]*model.Instance, 0, len(members))
	for _, pk := range members {
		inst, err := c.hydrate(ctx, pk)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// At returns the primary key at position i. A non-negative index on an
// unsliced collection is served through the store's native pagination
// (one-element window); a negative index falls back to full materialization
// and counts from the end. Out of range yields ErrIndexOutOfRange.
func (c *Collection) At(ctx context.Context, i int) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	if i >= 0 && c.slice == nil {
		window := c.clone()
		window.slice = &sliceSpec{start: i, stop: i + 1}
		members, err := window.evalMembers(ctx)
		if err != nil {
			return "", err
		}
		if len(members) == 0 {
			return "", ErrIndexOutOfRange
		}
		return members[0], nil
	}

	members, err := c.Members(ctx)
	if err != nil {
		return "", err
	}
	idx := i
	if i < 0 {
		idx = len(members) + i
	}
	if idx < 0 || idx >= len(members) {
		return "", ErrIndexOutOfRange
	}
	return members[idx], nil
}

// InstanceAt is At followed by hydration.
func (c *Collection) InstanceAt(ctx context.Context, i int) (*model.Instance, error) {
	pk, err := c.At(ctx, i)
	if err != nil {
		return nil, err
	}
	return c.hydrate(ctx, pk)
}

func (c *Collection) hydrate(ctx context.Context, pk string) (*model.Instance, error) {
	if c.skipExistCheck {
		return c.model.LazyLoad(c.store, pk), nil
	}
	return c.model.Load(ctx, c.store, pk)
}
