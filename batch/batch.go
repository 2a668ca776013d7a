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

// Package batch downloads large selections of IMF series by splitting them
// into chunks along one or more dimensions, one request per combination of
// chunks, and appending the rows to a CSV file.
package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/imf"
	"github.com/stockparfait/imf/series"
	"github.com/stockparfait/imf/table"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
)

// Stats of a finished job.
type Stats struct {
	Chunks int // processed chunks, including failed
	Failed int
	Rows   int            // rows written to the output
	Unique map[string]int // dimension -> number of distinct values written
	First  series.Period  // earliest period written; zero when none
	Last   series.Period  // latest period written
}

// Report lists the statistics as human readable lines, with the unique value
// counts of dims in that order.
func (s *Stats) Report(dims []string) []string {
	lines := []string{
		fmt.Sprintf("chunks: %d, failed: %d", s.Chunks, s.Failed),
		fmt.Sprintf("rows written: %d", s.Rows),
	}
	for _, d := range dims {
		lines = append(lines, fmt.Sprintf("unique %s: %d", d, s.Unique[d]))
	}
	if s.First.IsZero() {
		return append(lines, "date range: none")
	}
	return append(lines, fmt.Sprintf("date range: from %s to %s", s.First, s.Last))
}

// Split values into chunks of at most size elements.
func Split(values []string, size int) [][]string {
	var chunks [][]string
	for size > 0 && len(values) > 0 {
		n := size
		if n > len(values) {
			n = len(values)
		}
		chunks = append(chunks, values[:n])
		values = values[n:]
	}
	return chunks
}

// Product is the cross product of the chunk lists, the first list being the
// outermost loop. Each element holds one chunk from every list, in the order
// of the lists. The product of no lists is a single empty element.
func Product(lists [][][]string) [][][]string {
	res := [][][]string{{}}
	for _, chunks := range lists {
		var next [][][]string
		for _, prefix := range res {
			for _, ch := range chunks {
				el := make([][]string, len(prefix), len(prefix)+1)
				copy(el, prefix)
				next = append(next, append(el, ch))
			}
		}
		res = next
	}
	return res
}

type chunkResult struct {
	index int
	rows  series.Rows
	err   error
}

type progress struct {
	Stats
	seen map[string]map[string]struct{}
	err  error // flushing failed; the rest of the chunks are ignored
}

func (p *progress) record(r series.Row) {
	for d, v := range r.Dimensions {
		if p.seen[d] == nil {
			p.seen[d] = make(map[string]struct{})
		}
		p.seen[d][v] = struct{}{}
	}
	if r.Period.IsZero() {
		return
	}
	if p.First.IsZero() || r.Period.Before(p.First) {
		p.First = r.Period
	}
	if p.Last.IsZero() || p.Last.Before(r.Period) {
		p.Last = r.Period
	}
}

// jobs returns the chunk combinations to request, each with one chunk per
// c.Chunks element.
func jobs(ds *imf.Dataset, c *Config) ([][][]string, error) {
	lists := make([][][]string, len(c.Chunks))
	for i, ch := range c.Chunks {
		if ds.Schema.Index(ch.Dimension) < 0 {
			return nil, errors.Reason("chunk dimension '%s' is not in dataset %s: %s",
				ch.Dimension, ds.ID, ds.Schema.String())
		}
		values := ch.Values
		if len(values) == 0 {
			values = ds.Vocabulary.Values(ch.Dimension)
		}
		size := ch.Size
		if size <= 0 {
			size = c.ChunkSize
		}
		lists[i] = Split(values, size)
	}
	return Product(lists), nil
}

func describe(c *Config, job [][]string) string {
	parts := make([]string, len(job))
	for i, values := range job {
		parts[i] = c.Chunks[i].Dimension + "=" + strings.Join(values, "+")
	}
	return strings.Join(parts, " ")
}

// Run the job for the dataset. Chunks are fetched sequentially, iterating over
// the cross product of the chunks of all the chunk dimensions. A failed chunk
// is logged and counted without stopping the job. The rows are flushed to the
// output every c.FlushEvery chunks and at the end. Only configuration and
// output errors are returned.
func Run(ctx context.Context, ds *imf.Dataset, c *Config) (*Stats, error) {
	js, err := jobs(ds, c)
	if err != nil {
		return nil, err
	}
	base := c.filter()
	// Reject invalid values before the first request.
	all := base
	for _, ch := range c.Chunks {
		all = all.Equal(ch.Dimension, ch.Values...)
	}
	if _, err := ds.Query(all); err != nil {
		return nil, err
	}
	dims := ds.Schema.Names()
	app, err := table.NewAppender(c.Output, series.Header(dims), c.Truncate)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open output")
	}
	indices := make([]int, len(js))
	for i := range indices {
		indices[i] = i
	}
	f := func(i int) chunkResult {
		filter := base
		for k, values := range js[i] {
			filter = filter.Equal(c.Chunks[k].Dimension, values...)
		}
		rows, err := ds.FetchSeries(ctx, filter)
		return chunkResult{index: i, rows: rows, err: err}
	}
	// A single worker keeps the requests sequential while the previous chunk
	// is being written.
	pm := iterator.ParallelMap(ctx, 1, iterator.FromSlice(indices), f)

	start := &progress{seen: make(map[string]map[string]struct{})}
	p := iterator.Reduce[chunkResult, *progress](pm, start,
		func(r chunkResult, p *progress) *progress {
			if p.err != nil {
				return p
			}
			p.Chunks++
			if r.err != nil {
				p.Failed++
				logging.Warningf(ctx, "chunk %d/%d [%s] failed: %s",
					r.index+1, len(js), describe(c, js[r.index]), r.err.Error())
			} else {
				for _, row := range r.rows {
					app.Add(row.Strings(dims))
					p.record(row)
				}
				logging.Infof(ctx, "chunk %d/%d [%s]: %d rows",
					r.index+1, len(js), describe(c, js[r.index]), len(r.rows))
			}
			if p.Chunks%c.FlushEvery == 0 && app.Pending() > 0 {
				if err := app.Flush(); err != nil {
					p.err = errors.Annotate(err, "failed to flush after chunk %d", r.index+1)
				}
			}
			return p
		})
	if p.err != nil {
		return nil, p.err
	}
	if err := app.Flush(); err != nil {
		return nil, errors.Annotate(err, "failed to flush the last rows")
	}
	p.Rows = app.Written()
	p.Unique = make(map[string]int, len(p.seen))
	for d, values := range p.seen {
		p.Unique[d] = len(values)
	}
	return &p.Stats, nil
}
