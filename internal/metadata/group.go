package metadata

import "sort"

// identity is the part of an entity that takes part in identity resolution.
type identity struct {
	Name         string
	OriginalName string
	Type         string
	ExternalIDs  []ExternalID
}

// identityKeys returns the key set of an entity: one key per external id and
// one per distinct compacted name. For typed relations every key carries the
// normalized relation type, so the same person as "actor" and as "director"
// never share a key.
func identityKeys(id identity, typed bool) []string {
	suffix := ""
	if typed {
		suffix = "|" + normalizeType(id.Type)
	}

	keys := make([]string, 0, len(id.ExternalIDs)+2)
	seen := make(map[string]bool, cap(keys))
	add := func(key string) {
		key += suffix
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, ext := range id.ExternalIDs {
		if !ext.empty() {
			add(ext.Key())
		}
	}
	if c := CompactName(id.OriginalName); c != "" {
		add("name:" + c)
	}
	if c := CompactName(id.Name); c != "" {
		add("name:" + c)
	}
	return keys
}

type group[T any] struct {
	order  int
	keys   map[string]struct{}
	item   T
	active bool
}

// grouper resolves a stream of entities into identity groups. Groups are never
// removed: folded groups are tombstoned so their order stays stable, and the
// key index always points at the group that currently owns a key.
type grouper[T any] struct {
	groups []*group[T]
	index  map[string]int
	keysOf func(T) []string
	fuse   func(dst, src T) T
}

func newGrouper[T any](keysOf func(T) []string, fuse func(dst, src T) T) *grouper[T] {
	return &grouper[T]{
		index:  make(map[string]int),
		keysOf: keysOf,
		fuse:   fuse,
	}
}

// add folds one entity into the groups.
func (g *grouper[T]) add(item T) {
	keys := g.keysOf(item)
	matched := g.match(keys, -1)

	if len(matched) == 0 {
		grp := &group[T]{
			order:  len(g.groups),
			keys:   make(map[string]struct{}, len(keys)),
			item:   item,
			active: true,
		}
		g.groups = append(g.groups, grp)
		g.absorb(grp, keys)
		return
	}

	survivor := g.fold(matched)
	survivor.item = g.fuse(survivor.item, item)
	g.absorb(survivor, keys)
	g.reindex(survivor)
}

// match returns the orders of the active groups owning any of keys, ascending.
// include, when >= 0, is always part of the result.
func (g *grouper[T]) match(keys []string, include int) []int {
	seen := make(map[int]bool)
	if include >= 0 {
		seen[include] = true
	}
	for _, key := range keys {
		if order, ok := g.index[key]; ok && g.groups[order].active {
			seen[order] = true
		}
	}
	orders := make([]int, 0, len(seen))
	for order := range seen {
		orders = append(orders, order)
	}
	sort.Ints(orders)
	return orders
}

// fold merges the groups with the given ascending orders into the earliest one
// and tombstones the rest.
func (g *grouper[T]) fold(orders []int) *group[T] {
	survivor := g.groups[orders[0]]
	for _, order := range orders[1:] {
		other := g.groups[order]
		survivor.item = g.fuse(survivor.item, other.item)
		folded := make([]string, 0, len(other.keys))
		for key := range other.keys {
			folded = append(folded, key)
		}
		sort.Strings(folded)
		g.absorb(survivor, folded)
		other.active = false
		other.keys = nil
	}
	return survivor
}

// reindex indexes the keys of the fused item itself. A fused item can expose a
// key none of its sources had on its own; if such a key is owned by another
// active group, that group is folded as well.
func (g *grouper[T]) reindex(grp *group[T]) {
	for {
		own := g.keysOf(grp.item)
		matched := g.match(own, grp.order)
		if len(matched) == 1 {
			g.absorb(grp, own)
			return
		}
		grp = g.fold(matched)
	}
}

func (g *grouper[T]) absorb(grp *group[T], keys []string) {
	for _, key := range keys {
		grp.keys[key] = struct{}{}
		g.index[key] = grp.order
	}
}

// items returns the current item of every active group in insertion order.
func (g *grouper[T]) items() []T {
	out := make([]T, 0, len(g.groups))
	for _, grp := range g.groups {
		if grp.active {
			out = append(out, grp.item)
		}
	}
	return out
}

// groupMerge runs the stream through a grouper and returns the fused entities.
func groupMerge[T any](stream []T, keysOf func(T) []string, fuse func(dst, src T) T) []T {
	g := newGrouper(keysOf, fuse)
	for _, item := range stream {
		g.add(item)
	}
	return g.items()
}

// appendDedupe keeps the first occurrence of every entity; an entity sharing
// any key with an earlier one is dropped, and its keys still count as seen.
func appendDedupe[T any](stream []T, keysOf func(T) []string) []T {
	seen := make(map[string]bool)
	out := make([]T, 0, len(stream))
	for _, item := range stream {
		keys := keysOf(item)
		duplicate := false
		for _, key := range keys {
			if seen[key] {
				duplicate = true
				break
			}
		}
		for _, key := range keys {
			seen[key] = true
		}
		if !duplicate {
			out = append(out, item)
		}
	}
	return out
}

// unionBy appends the items of src whose key is not yet present, skipping empty keys.
func unionBy[T any](dst, src []T, key func(T) string) []T {
	seen := make(map[string]bool, len(dst)+len(src))
	out := make([]T, 0, len(dst)+len(src))
	for _, list := range [][]T{dst, src} {
		for _, item := range list {
			k := key(item)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, item)
		}
	}
	return out
}
