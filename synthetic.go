package audiolib

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Control characters structuring synthetic fields inside one tag string.
const (
	GroupSeparator  = '\x1d' // between synthetic fields
	RecordSeparator = '\x1e' // between values of a multi-valued field
	UnitSeparator   = '\x1f' // reserved
)

// SyntheticKey is the fixed 10-character prefix of a synthetic field.
type SyntheticKey string

const (
	SyntheticPlayedLast   SyntheticKey = "PLAYED_LST"
	SyntheticPlayedFirst  SyntheticKey = "PLAYED_1ST"
	SyntheticLibraryAdded SyntheticKey = "LIB_ADDED_"
	SyntheticColor        SyntheticKey = "COLOR_____"
	SyntheticTags         SyntheticKey = "TAG_______"
)

const syntheticKeyLen = 10

var knownSyntheticKeys = map[SyntheticKey]bool{
	SyntheticPlayedLast:   true,
	SyntheticPlayedFirst:  true,
	SyntheticLibraryAdded: true,
	SyntheticColor:        true,
	SyntheticTags:         true,
}

// Known reports whether k is one of the defined synthetic keys.
func (k SyntheticKey) Known() bool { return knownSyntheticKeys[k] }

type syntheticEntry struct {
	key   SyntheticKey
	value string
}

// Synthetic is the decoded content of the synthetic-field slot. Entries
// keep their stored order; chunks with an unrecognized key are carried
// through unchanged so rewriting never loses them. The zero value is an
// empty set. Synthetic values are immutable; With returns a copy.
type Synthetic struct {
	entries []syntheticEntry
}

// DecodeSynthetic splits s on the group separator. Chunks shorter than a
// key are skipped.
func DecodeSynthetic(s string) Synthetic {
	var out Synthetic
	for _, chunk := range strings.Split(s, string(GroupSeparator)) {
		if len(chunk) < syntheticKeyLen {
			continue
		}
		key := SyntheticKey(chunk[:syntheticKeyLen])
		out = out.With(key, chunk[syntheticKeyLen:])
	}
	return out
}

// Encode renders the stored form: key immediately followed by value,
// chunks joined by the group separator.
func (s Synthetic) Encode() string {
	var b strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			b.WriteByte(GroupSeparator)
		}
		b.WriteString(string(e.key))
		b.WriteString(e.value)
	}
	return b.String()
}

// Get returns the value stored under key and whether it is present.
func (s Synthetic) Get(key SyntheticKey) (string, bool) {
	for _, e := range s.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return "", false
}

// Len returns the number of stored chunks.
func (s Synthetic) Len() int { return len(s.entries) }

// With returns a copy with key set to value, replacing an existing entry
// in place or appending a new one.
func (s Synthetic) With(key SyntheticKey, value string) Synthetic {
	out := Synthetic{entries: make([]syntheticEntry, 0, len(s.entries)+1)}
	replaced := false
	for _, e := range s.entries {
		if e.key == key {
			if replaced {
				continue
			}
			e.value = value
			replaced = true
		}
		out.entries = append(out.entries, e)
	}
	if !replaced {
		out.entries = append(out.entries, syntheticEntry{key: key, value: value})
	}
	return out
}

// Without returns a copy with key removed.
func (s Synthetic) Without(key SyntheticKey) Synthetic {
	out := Synthetic{}
	for _, e := range s.entries {
		if e.key != key {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// Time decodes a timestamp field stored as Unix milliseconds. It returns
// the zero time when the field is absent or malformed.
func (s Synthetic) Time(key SyntheticKey) time.Time {
	v, ok := s.Get(key)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// WithTime stores t as Unix milliseconds; the zero time removes the key.
func (s Synthetic) WithTime(key SyntheticKey, t time.Time) Synthetic {
	if t.IsZero() {
		return s.Without(key)
	}
	return s.With(key, strconv.FormatInt(t.UnixMilli(), 10))
}

// List decodes a multi-valued field stored with record separators.
func (s Synthetic) List(key SyntheticKey) []string {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, string(RecordSeparator))
}

// WithList stores values joined by the record separator; an empty list
// removes the key.
func (s Synthetic) WithList(key SyntheticKey, values []string) Synthetic {
	if len(values) == 0 {
		return s.Without(key)
	}
	return s.With(key, strings.Join(values, string(RecordSeparator)))
}

// validSyntheticValue rejects values that would change the structure of
// the encoded string.
func validSyntheticValue(v string) error {
	if strings.ContainsAny(v, string([]rune{GroupSeparator, RecordSeparator, UnitSeparator})) {
		return fmt.Errorf("value %q contains a separator control character", v)
	}
	return nil
}
