package types

import (
	"iter"
	"maps"
	"slices"
)

// Tags is the raw tag multimap of one file, keyed by the tag dialect's
// native keys ("TIT2", "TITLE", "\xa9nam", "INAM").
//
// Keys keep the order in which they were first added, so scans over
// repeated frames (several COMM frames, several freeform atoms) are
// deterministic. Keys are case-sensitive; parsers normalize them.
type Tags struct {
	raw   map[string][]string
	order []string
}

// All returns an iterator over all tags in insertion order.
//
// The returned iterator is read-only. Do not modify the returned slices.
func (t *Tags) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, key := range t.order {
			if !yield(key, t.raw[key]) {
				return
			}
		}
	}
}

// Keys returns the tag keys in insertion order.
func (t *Tags) Keys() []string {
	return slices.Clone(t.order)
}

// Len returns the number of distinct keys.
func (t *Tags) Len() int {
	return len(t.order)
}

// Has reports whether key has at least one value.
func (t *Tags) Has(key string) bool {
	return len(t.raw[key]) > 0
}

// Get retrieves all values for a tag key.
// Returns nil if the key doesn't exist.
func (t *Tags) Get(key string) []string {
	if t.raw == nil {
		return nil
	}
	values := t.raw[key]
	if values == nil {
		return nil
	}
	return slices.Clone(values)
}

// GetFirst retrieves the first value for a tag key, or "".
func (t *Tags) GetFirst(key string) string {
	if values := t.raw[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetBest tries multiple tag keys and returns the first non-empty value.
//
//	artist := tags.GetBest("ALBUMARTIST", "ALBUM ARTIST")
func (t *Tags) GetBest(candidates ...string) string {
	for _, key := range candidates {
		if value := t.GetFirst(key); value != "" {
			return value
		}
	}
	return ""
}

// Add appends a value to key.
func (t *Tags) Add(key, value string) {
	if t.raw == nil {
		t.raw = make(map[string][]string)
	}
	if _, ok := t.raw[key]; !ok {
		t.order = append(t.order, key)
	}
	t.raw[key] = append(t.raw[key], value)
}

// Set replaces the values of key. With no values the key is removed.
func (t *Tags) Set(key string, values ...string) {
	if len(values) == 0 {
		t.Delete(key)
		return
	}
	if t.raw == nil {
		t.raw = make(map[string][]string)
	}
	if _, ok := t.raw[key]; !ok {
		t.order = append(t.order, key)
	}
	t.raw[key] = slices.Clone(values)
}

// Delete removes key.
func (t *Tags) Delete(key string) {
	if _, ok := t.raw[key]; !ok {
		return
	}
	delete(t.raw, key)
	t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == key })
}

// Clone creates a deep copy of the tags.
func (t *Tags) Clone() *Tags {
	if t == nil {
		return nil
	}
	clone := &Tags{order: slices.Clone(t.order)}
	if t.raw != nil {
		clone.raw = make(map[string][]string, len(t.raw))
		for key, values := range t.raw {
			clone.raw[key] = slices.Clone(values)
		}
	}
	return clone
}

// Equal reports whether both tag sets hold the same keys and values.
// Key order is not compared.
func (t *Tags) Equal(other *Tags) bool {
	if t == nil || other == nil {
		return t == other
	}
	return maps.EqualFunc(t.raw, other.raw, slices.Equal)
}

// Filter returns an iterator over tags whose key matches predicate.
func (t *Tags) Filter(predicate func(string) bool) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for key, values := range t.All() {
			if predicate(key) && !yield(key, values) {
				return
			}
		}
	}
}
