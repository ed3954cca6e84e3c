package domain

import (
	"sort"
	"strings"
)

// TestData is the key/value bundle every criterion test receives and every
// submission carries.
type TestData map[string]string

// NewTestData builds TestData from alternating key/value pairs.
// A trailing key without a value maps to "".
func NewTestData(kv ...string) TestData {
	out := TestData{}
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		out[kv[i]] = v
	}
	return out
}

// Get returns a value for the given key and a boolean indicating if it exists.
func (d TestData) Get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d[key]
	return v, ok
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (d TestData) Clone() TestData {
	out := make(TestData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Keys returns the keys sorted alphabetically.
func (d TestData) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CSVHeader returns the sorted keys joined by commas.
func (d TestData) CSVHeader() string {
	return strings.Join(d.Keys(), ",")
}

// CSVValues returns the values ordered by their sorted keys, so column i of
// CSVValues lines up with column i of CSVHeader.
func (d TestData) CSVValues() []string {
	keys := d.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, d[k])
	}
	return out
}

// MergeData merges base and override (override wins) and returns a new map.
func MergeData(base TestData, override TestData) TestData {
	out := TestData{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
