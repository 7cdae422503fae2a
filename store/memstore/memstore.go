// Package memstore is an embedded, in-memory implementation of the setq
// store contract.
//
// Set membership is kept as Roaring bitmaps over a process-wide member
// dictionary: every distinct member string is interned once to a dense
// uint32 ID, so intersection and union push-downs run as bitmap operations
// instead of hash-set walks.
//
// The store is safe for concurrent use. Snapshot persistence (see
// snapshot.go) covers the Redis-RDB-style dump/restore cycle.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/setq/store"
)

// Store is an in-memory set store.
type Store struct {
	mu      sync.RWMutex
	dict    *dictionary
	sets    map[string]*roaring.Bitmap
	strings map[string]string
}

// Option configures a Store.
type Option func(*Store)

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		dict:    newDictionary(),
		sets:    make(map[string]*roaring.Bitmap),
		strings: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dictionary interns member strings to dense uint32 IDs.
type dictionary struct {
	ids     map[string]uint32
	members []string
}

func newDictionary() *dictionary {
	return &dictionary{ids: make(map[string]uint32)}
}

func (d *dictionary) intern(member string) uint32 {
	if id, ok := d.ids[member]; ok {
		return id
	}
	id := uint32(len(d.members))
	d.ids[member] = id
	d.members = append(d.members, member)
	return id
}

func (d *dictionary) lookup(member string) (uint32, bool) {
	id, ok := d.ids[member]
	return id, ok
}

func (d *dictionary) member(id uint32) string {
	return d.members[id]
}

// checkSetKey fails with ErrWrongType when key holds a string value.
func (s *Store) checkSetKey(key string) error {
	if _, clash := s.strings[key]; clash {
		return wrongType(key)
	}
	return nil
}

// checkStringKey fails with ErrWrongType when key holds a set.
func (s *Store) checkStringKey(key string) error {
	if _, clash := s.sets[key]; clash {
		return wrongType(key)
	}
	return nil
}

// SAdd implements store.Store.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSetKey(key); err != nil {
		return 0, err
	}

	bm, ok := s.sets[key]
	if !ok {
		bm = roaring.New()
		s.sets[key] = bm
	}

	var added int64
	for _, m := range members {
		if bm.CheckedAdd(s.dict.intern(m)) {
			added++
		}
	}
	return added, nil
}

// SRem implements store.Store.
func (s *Store) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSetKey(key); err != nil {
		return 0, err
	}

	bm, ok := s.sets[key]
	if !ok {
		return 0, nil
	}

	var removed int64
	for _, m := range members {
		id, known := s.dict.lookup(m)
		if !known {
			continue
		}
		if bm.CheckedRemove(id) {
			removed++
		}
	}
	if bm.IsEmpty() {
		delete(s.sets, key)
	}
	return removed, nil
}

// SCard implements store.Store. A missing key is an empty set.
func (s *Store) SCard(ctx context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSetKey(key); err != nil {
		return 0, err
	}
	bm, ok := s.sets[key]
	if !ok {
		return 0, nil
	}
	return int64(bm.GetCardinality()), nil
}

// SMembers implements store.Store. Order follows interning order, which
// callers must treat as unspecified.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSetKey(key); err != nil {
		return nil, err
	}
	return s.membersLocked(key), nil
}

func (s *Store) membersLocked(key string) []string {
	bm, ok := s.sets[key]
	if !ok {
		return []string{}
	}

	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, s.dict.member(it.Next()))
	}
	return out
}

// SIsMember implements store.Store.
func (s *Store) SIsMember(ctx context.Context, key string, member string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSetKey(key); err != nil {
		return false, err
	}
	bm, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	id, known := s.dict.lookup(member)
	if !known {
		return false, nil
	}
	return bm.Contains(id), nil
}

// SInterStore implements store.Store. An empty intersection deletes the
// destination key, so a missing destination always reads as empty.
func (s *Store) SInterStore(ctx context.Context, dst string, keys ...string) (int64, error) {
	return s.combineStore(dst, keys, func(acc, bm *roaring.Bitmap) { acc.And(bm) }, true)
}

// SUnionStore implements store.Store.
func (s *Store) SUnionStore(ctx context.Context, dst string, keys ...string) (int64, error) {
	return s.combineStore(dst, keys, func(acc, bm *roaring.Bitmap) { acc.Or(bm) }, false)
}

func (s *Store) combineStore(dst string, keys []string, combine func(acc, bm *roaring.Bitmap), missingEmpties bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSetKey(dst); err != nil {
		return 0, err
	}

	var acc *roaring.Bitmap
	for _, key := range keys {
		if err := s.checkSetKey(key); err != nil {
			return 0, err
		}
		bm, ok := s.sets[key]
		if !ok {
			if missingEmpties {
				// Intersecting with a missing set is empty.
				acc = roaring.New()
				break
			}
			continue
		}
		if acc == nil {
			acc = bm.Clone()
			continue
		}
		combine(acc, bm)
	}

	if acc == nil {
		acc = roaring.New()
	}
	if acc.IsEmpty() {
		delete(s.sets, dst)
		return 0, nil
	}
	s.sets[dst] = acc
	return int64(acc.GetCardinality()), nil
}

// Del implements store.Store.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if _, ok := s.sets[key]; ok {
			delete(s.sets, key)
			deleted++
			continue
		}
		if _, ok := s.strings[key]; ok {
			delete(s.strings, key)
			deleted++
		}
	}
	return deleted, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkStringKey(key); err != nil {
		return "", false, err
	}
	v, ok := s.strings[key]
	return v, ok, nil
}

// Set implements store.Store.
func (s *Store) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStringKey(key); err != nil {
		return err
	}
	s.strings[key] = value
	return nil
}

// Keys returns every live key, sets and strings alike, sorted. Intended for
// tests and diagnostics.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.sets)+len(s.strings))
	for k := range s.sets {
		out = append(out, k)
	}
	for k := range s.strings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Sort implements store.Store's sort-and-fetch operation.
//
// Members compare numerically unless opts.Alpha is set; a member (or
// by-value) that does not parse as a number yields ErrNotNumeric. A By
// pattern substitutes `*` with the member and compares the fetched values,
// with missing values reading as empty; a By pattern without `*` skips the
// ordering pass entirely. Ties break on the member string so results are
// deterministic. The limit applies after ordering.
func (s *Store) Sort(ctx context.Context, key string, opts store.SortOptions) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSetKey(key); err != nil {
		return nil, err
	}
	members := s.membersLocked(key)

	noSort := opts.By != "" && !strings.Contains(opts.By, "*")
	if !noSort {
		type record struct {
			member string
			weight string
		}
		records := make([]record, len(members))
		for i, m := range members {
			records[i].member = m
			if opts.By == "" {
				records[i].weight = m
			} else {
				records[i].weight = s.strings[substitute(opts.By, m)]
			}
		}

		var serr error
		sort.SliceStable(records, func(i, j int) bool {
			var cmp int
			if opts.Alpha {
				cmp = strings.Compare(records[i].weight, records[j].weight)
			} else {
				a, err := parseWeight(records[i].weight)
				if err != nil && serr == nil {
					serr = err
				}
				b, err := parseWeight(records[j].weight)
				if err != nil && serr == nil {
					serr = err
				}
				switch {
				case a < b:
					cmp = -1
				case a > b:
					cmp = 1
				}
			}
			if cmp == 0 {
				cmp = strings.Compare(records[i].member, records[j].member)
			}
			if opts.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
		if serr != nil {
			return nil, serr
		}

		for i := range records {
			members[i] = records[i].member
		}
	}

	if opts.Limit != nil {
		members = applyLimit(members, opts.Limit)
	}

	if len(opts.Get) == 0 {
		return members, nil
	}

	// Dereference get patterns per member, flattened in pattern order.
	out := make([]string, 0, len(members)*len(opts.Get))
	for _, m := range members {
		for _, pattern := range opts.Get {
			if pattern == "#" {
				out = append(out, m)
				continue
			}
			out = append(out, s.strings[substitute(pattern, m)])
		}
	}
	return out, nil
}

func substitute(pattern, member string) string {
	return strings.Replace(pattern, "*", member, 1)
}

// parseWeight parses a numeric sort weight. The empty string (missing
// by-value) reads as zero.
func parseWeight(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, notNumeric(v)
	}
	return f, nil
}

func applyLimit(members []string, l *store.Limit) []string {
	start := l.Start
	if start < 0 {
		start = 0
	}
	if start >= int64(len(members)) {
		return []string{}
	}
	if l.Count < 0 {
		return members[start:]
	}
	end := start + l.Count
	if end > int64(len(members)) {
		end = int64(len(members))
	}
	return members[start:end]
}
