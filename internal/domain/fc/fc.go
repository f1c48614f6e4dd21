// Package fc holds the feature collection model: a sparse bag of named
// features describing one content item. Features are either scalar strings
// or weighted string multisets. The search and filter layers only ever read
// feature collections; creation happens at the API boundary.
package fc

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NilsimsaFeature is the reserved feature name holding the nilsimsa hex
// digests of a content item. One item may carry several digests (one per
// chunk), so the value is a StringCounter keyed by 64-hex-digit strings.
const NilsimsaFeature = "#nilsimsa_all"

// StringCounter is a weighted multiset of strings.
type StringCounter map[string]int

// Keys returns the counter's keys in sorted order.
func (c StringCounter) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Feature is a single feature value: a scalar string or a StringCounter.
// The zero value is an empty scalar.
type Feature struct {
	scalar  string
	counter StringCounter
}

// NewScalar creates a scalar string feature.
func NewScalar(s string) Feature {
	return Feature{scalar: s}
}

// NewCounter creates a weighted multiset feature.
func NewCounter(c StringCounter) Feature {
	return Feature{counter: c}
}

// IsCounter reports whether the feature holds a multiset.
func (f Feature) IsCounter() bool { return f.counter != nil }

// Scalar returns the scalar value, or "" for counter features.
func (f Feature) Scalar() string { return f.scalar }

// Counter returns the multiset value, or nil for scalar features.
func (f Feature) Counter() StringCounter { return f.counter }

// MarshalJSON encodes scalars as JSON strings and counters as objects.
func (f Feature) MarshalJSON() ([]byte, error) {
	if f.counter != nil {
		return json.Marshal(f.counter)
	}
	return json.Marshal(f.scalar)
}

// UnmarshalJSON decodes a JSON string into a scalar and a JSON object of
// integer weights into a counter.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Feature{scalar: s}
		return nil
	}
	var c StringCounter
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("feature must be a string or an object of integer weights: %w", err)
	}
	*f = Feature{counter: c}
	return nil
}

// FeatureCollection maps feature names to values.
type FeatureCollection map[string]Feature

// Scalar returns the named scalar feature, or "" if absent or a counter.
func (fc FeatureCollection) Scalar(name string) string {
	return fc[name].Scalar()
}

// Counter returns the named multiset feature, or nil if absent or scalar.
func (fc FeatureCollection) Counter(name string) StringCounter {
	return fc[name].Counter()
}

// Names returns the feature names in sorted order.
func (fc FeatureCollection) Names() []string {
	names := make([]string, 0, len(fc))
	for n := range fc {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
