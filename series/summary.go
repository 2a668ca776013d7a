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
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary statistics of a single series. Null values are counted but
// otherwise excluded from the statistics.
type Summary struct {
	Labels []string
	Count  int // number of rows, including nulls
	Nulls  int
	First  Period
	Last   Period
	Mean   float64
	StdDev float64 // sample standard deviation; 0 for fewer than 2 values
	Min    float64
	Median float64
	Max    float64
}

// SummaryHeader is the list of column names matching Summary.Strings, where
// dims are the grouping dimensions.
func SummaryHeader(dims []string) []string {
	h := append([]string{}, dims...)
	return append(h, "count", "nulls", "first", "last", "mean", "stddev",
		"min", "median", "max")
}

// Strings formats the summary as table cells.
func (s *Summary) Strings() []string {
	f := func(x float64) string { return fmt.Sprintf("%.4g", x) }
	res := append([]string{}, s.Labels...)
	return append(res, fmt.Sprintf("%d", s.Count), fmt.Sprintf("%d", s.Nulls),
		s.First.String(), s.Last.String(), f(s.Mean), f(s.StdDev),
		f(s.Min), f(s.Median), f(s.Max))
}

// Summarize computes statistics for each series, where a series is a group of
// rows with the same values of dims.
func Summarize(rows Rows, dims []string) []*Summary {
	var res []*Summary
	for _, g := range rows.Group(dims) {
		res = append(res, summarize(g))
	}
	return res
}

func summarize(g *Group) *Summary {
	s := &Summary{Labels: g.Labels, Count: len(g.Rows)}
	for i, r := range g.Rows {
		if i == 0 || r.Period.Before(s.First) {
			s.First = r.Period
		}
		if i == 0 || s.Last.Before(r.Period) {
			s.Last = r.Period
		}
	}
	values := g.Rows.Values()
	s.Nulls = s.Count - len(values)
	if len(values) == 0 {
		return s
	}
	sorted := append([]float64{}, values...)
	slices.Sort(sorted)
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}
