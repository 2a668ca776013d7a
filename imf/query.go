// Copyright 2023 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package imf

import (
	"net/url"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Filter selects series by dimension values and limits the time range. A
// dimension without values is a wildcard. The zero value is an empty filter.
type Filter struct {
	dims  map[string][]string
	start string
	end   string
}

// NewFilter creates an empty filter: all series, all periods.
func NewFilter() *Filter {
	return &Filter{dims: make(map[string][]string)}
}

// Copy creates a deep copy of the filter. It is primarily used in its builder
// methods.
func (f *Filter) Copy() *Filter {
	f2 := NewFilter()
	for d, v := range f.dims {
		f2.dims[d] = append([]string{}, v...)
	}
	f2.start = f.start
	f2.end = f.end
	return f2
}

// Equal selects the values of the dimension; the name is case-insensitive.
// Selecting no values makes the dimension a wildcard again. This and other
// builder methods always create a copy of the filter, leaving the original
// intact.
func (f *Filter) Equal(dim string, values ...string) *Filter {
	f2 := f.Copy()
	dim = strings.ToLower(dim)
	if len(values) == 0 {
		delete(f2.dims, dim)
	} else {
		f2.dims[dim] = append([]string{}, values...)
	}
	return f2
}

// Start sets the first period to fetch, e.g. "2005" or "2005-Q2".
func (f *Filter) Start(period string) *Filter {
	f2 := f.Copy()
	f2.start = period
	return f2
}

// End sets the last period to fetch.
func (f *Filter) End(period string) *Filter {
	f2 := f.Copy()
	f2.end = period
	return f2
}

// Values selected for the dimension; nil for a wildcard.
func (f *Filter) Values(dim string) []string {
	return f.dims[strings.ToLower(dim)]
}

// Dimensions returns the sorted names of the non-wildcard dimensions.
func (f *Filter) Dimensions() []string {
	names := maps.Keys(f.dims)
	slices.Sort(names)
	return names
}

// DimensionOrders lists the datasets whose positional key order differs from
// the declared schema order, and the order to use instead. The service does
// not advertise this order, so each entry has to be verified against the live
// service.
var DimensionOrders = map[string][]string{
	"BOP": {"freq", "ref_area", "indicator"},
}

// RegisterDimensionOrder adds or replaces the key order of a dataset.
func RegisterDimensionOrder(id string, dims ...string) {
	order := make([]string, len(dims))
	for i, d := range dims {
		order[i] = strings.ToLower(d)
	}
	DimensionOrders[id] = order
}

// Query is a fully built CompactData request.
type Query struct {
	Dataset     string
	Key         string   // dimension part of the path
	StartPeriod string   // optional
	EndPeriod   string   // optional
	Ignored     []string // filter dimensions not addressable by the key order
}

// Path returns the endpoint path relative to the base URL.
func (q *Query) Path() string {
	return "CompactData/" + q.Dataset + "/" + q.Key
}

// Values returns the query parameters. Each call creates a new object, so the
// caller is free to modify it without affecting the query.
func (q *Query) Values() url.Values {
	v := make(url.Values)
	if q.StartPeriod != "" {
		v.Set("startPeriod", q.StartPeriod)
	}
	if q.EndPeriod != "" {
		v.Set("endPeriod", q.EndPeriod)
	}
	return v
}

// ValidateFilter checks that every selected value belongs to the vocabulary
// of its dimension, and every filtered dimension exists. All the offenders
// are reported in one *InvalidFilterError, in schema order followed by
// unknown dimensions.
func ValidateFilter(id string, schema Schema, vocab Vocabulary, f *Filter) error {
	var invalid []InvalidValues
	for _, d := range schema {
		values := f.dims[d.Name]
		if len(values) == 0 {
			continue
		}
		valid := vocab.valueSet(d.Name)
		var bad []string
		for _, v := range values {
			if _, ok := valid[v]; !ok && !slices.Contains(bad, v) {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			invalid = append(invalid, InvalidValues{Dimension: d.Name, Values: bad})
		}
	}
	for _, name := range f.Dimensions() {
		if schema.Index(name) < 0 {
			invalid = append(invalid, InvalidValues{
				Dimension: name, Values: f.dims[name], Unknown: true})
		}
	}
	if len(invalid) > 0 {
		return &InvalidFilterError{Dataset: id, Invalid: invalid}
	}
	return nil
}

// BuildQuery validates the filter and builds the query. By default the key has
// one "name.value1+value2" segment per schema dimension, in schema order, with
// "name." for a wildcard. Datasets in DimensionOrders use their explicit order
// instead, one "value1+value2" segment per dimension, empty for a wildcard.
func BuildQuery(id string, schema Schema, vocab Vocabulary, f *Filter) (*Query, error) {
	if f == nil {
		f = NewFilter()
	}
	if err := ValidateFilter(id, schema, vocab, f); err != nil {
		return nil, err
	}
	q := &Query{Dataset: id, StartPeriod: f.start, EndPeriod: f.end}
	if order, ok := DimensionOrders[id]; ok {
		q.Key, q.Ignored = orderedKey(order, f)
	} else {
		q.Key = schemaKey(schema, f)
	}
	return q, nil
}

func schemaKey(schema Schema, f *Filter) string {
	parts := make([]string, len(schema))
	for i, d := range schema {
		parts[i] = d.Name + "." + strings.Join(f.dims[d.Name], "+")
	}
	return strings.Join(parts, ".")
}

func orderedKey(order []string, f *Filter) (string, []string) {
	parts := make([]string, len(order))
	for i, d := range order {
		parts[i] = strings.Join(f.dims[d], "+")
	}
	var ignored []string
	for _, d := range f.Dimensions() {
		if !slices.Contains(order, d) {
			ignored = append(ignored, d)
		}
	}
	return strings.Join(parts, "."), ignored
}
