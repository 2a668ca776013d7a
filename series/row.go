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

package series

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Column names of the two fixed columns of every row.
const (
	TimePeriodColumn = "TIME_PERIOD"
	ObsValueColumn   = "OBS_VALUE"
)

// Row is a single flattened observation.
type Row struct {
	Period     Period
	Value      Value
	Dimensions map[string]string // dimension name -> value; nil when none
	Attributes map[string]string // extra observation attributes; nil when none
}

// Rows is an ordered result set. An empty result is a non-nil empty slice.
type Rows []Row

// Header returns the column names for the given dimensions, in the same order
// as Row.Strings.
func Header(dims []string) []string {
	h := []string{TimePeriodColumn, ObsValueColumn}
	return append(h, dims...)
}

// Strings formats the row as a list of cells for the given dimensions. A
// dimension the row does not have is an empty cell.
func (r Row) Strings(dims []string) []string {
	res := make([]string, 0, 2+len(dims))
	res = append(res, r.Period.String(), r.Value.String())
	for _, d := range dims {
		res = append(res, r.Dimensions[d])
	}
	return res
}

// Dimensions returns the sorted union of dimension names present in the rows.
func (rs Rows) Dimensions() []string {
	set := make(map[string]struct{})
	for _, r := range rs {
		for d := range r.Dimensions {
			set[d] = struct{}{}
		}
	}
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

// Group is a subset of rows sharing the same dimension values.
type Group struct {
	Labels []string // dimension values, in the order of the requested dims
	Rows   Rows
}

// Key joins the labels with '.', the same way series keys are written.
func (g *Group) Key() string {
	return strings.Join(g.Labels, ".")
}

// Group splits the rows by the values of dims, in the order each combination
// first appears. Row order within a group is preserved.
func (rs Rows) Group(dims []string) []*Group {
	var groups []*Group
	index := make(map[string]*Group)
	for _, r := range rs {
		labels := make([]string, len(dims))
		for i, d := range dims {
			labels[i] = r.Dimensions[d]
		}
		// '\x00' cannot appear in a dimension value.
		k := strings.Join(labels, "\x00")
		g, ok := index[k]
		if !ok {
			g = &Group{Labels: labels}
			index[k] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, r)
	}
	return groups
}

// Values returns the non-null values of the rows.
func (rs Rows) Values() []float64 {
	var res []float64
	for _, r := range rs {
		if r.Value.Valid {
			res = append(res, r.Value.V)
		}
	}
	return res
}
