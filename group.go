package audiolib

import (
	"fmt"
	"slices"
)

// Group is an immutable aggregate over the items sharing one value of a
// Field.
type Group struct {
	Field Field
	Value any

	Count          int
	Albums         int     // distinct album names
	Length         float64 // total milliseconds
	Size           int64   // total bytes of known sizes
	AvgRating      float64 // mean RatingPercent, unknown counting as 0
	WeightedRating float64 // AvgRating * Count
	Years          YearRange

	items []*Metadata
}

// Items returns the grouped metadata in input order.
func (g *Group) Items() []*Metadata { return slices.Clone(g.items) }

// YearRange spans the known years of a group.
type YearRange struct {
	Min, Max int
	known    bool
}

// Known reports whether any item had a year.
func (r YearRange) Known() bool { return r.known }

// Specific reports whether all dated items share one year.
func (r YearRange) Specific() bool { return r.known && r.Min == r.Max }

func (r YearRange) add(year int) YearRange {
	if year < 0 {
		return r
	}
	if !r.known {
		return YearRange{Min: year, Max: year, known: true}
	}
	r.Min = min(r.Min, year)
	r.Max = max(r.Max, year)
	return r
}

func (r YearRange) String() string {
	switch {
	case !r.known:
		return ""
	case r.Min == r.Max:
		return fmt.Sprint(r.Min)
	default:
		return fmt.Sprintf("%d-%d", r.Min, r.Max)
	}
}

// newGroup computes the aggregates in one pass over items.
func newGroup(field Field, value any, items []*Metadata) *Group {
	g := &Group{Field: field, Value: value, Count: len(items), items: items}
	albums := make(map[string]struct{})
	var ratingSum float64
	for _, m := range items {
		g.Length += m.LengthMillis()
		if m.Size() > 0 {
			g.Size += m.Size()
		}
		albums[m.Album()] = struct{}{}
		ratingSum += m.RatingPercent()
		g.Years = g.Years.add(m.Year())
	}
	g.Albums = len(albums)
	if g.Count > 0 {
		g.AvgRating = ratingSum / float64(g.Count)
		g.WeightedRating = g.AvgRating * float64(g.Count)
	}
	return g
}

// GroupsOf partitions items by field's group value. Groups appear in the
// order their first item does; Empty items are left out.
func GroupsOf(field Field, items []*Metadata) []*Group {
	var order []any
	buckets := make(map[any][]*Metadata)
	for _, m := range items {
		if m == nil || m.IsEmpty() {
			continue
		}
		key := field.Group(m)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], m)
	}

	groups := make([]*Group, len(order))
	for i, key := range order {
		groups[i] = newGroup(field, key, buckets[key])
	}
	return groups
}

// GroupOf builds one pseudo-group over all non-empty items, valued with
// field's AllValue.
func GroupOf(field Field, items []*Metadata) *Group {
	kept := make([]*Metadata, 0, len(items))
	for _, m := range items {
		if m != nil && !m.IsEmpty() {
			kept = append(kept, m)
		}
	}
	return newGroup(field, field.AllValue(), kept)
}

// Degroup flattens groups into their distinct member items, keeping the
// order of first appearance.
func Degroup(groups []*Group) []*Metadata {
	seen := make(map[*Metadata]struct{})
	var out []*Metadata
	for _, g := range groups {
		for _, m := range g.items {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
