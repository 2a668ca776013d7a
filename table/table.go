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

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/series"
)

// Row of table cells.
type Row []string

// Table container.
//
// A typical use:
//
//	t := table.NewTable("ID", "Description")
//	t.AddRow(table.Row{"BOP", "Balance of Payments"})
//	err := t.WriteText(os.Stdout, table.Params{})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table with optional column headers. When present, the
// number of headers is expected to match the number of cells in each row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// FromRows creates a table of series rows with a column for each of the dims.
func FromRows(rows series.Rows, dims []string) *Table {
	t := NewTable(series.Header(dims)...)
	for _, r := range rows {
		t.AddRow(r.Strings(dims))
	}
	return t
}

// FromSummaries creates a table of series summaries grouped by dims.
func FromSummaries(summaries []*series.Summary, dims []string) *Table {
	t := NewTable(series.SummaryHeader(dims)...)
	for _, s := range summaries {
		t.AddRow(s.Strings())
	}
	return t
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// rows returns the rows to write, limited by p.Rows.
func (t *Table) rows(p Params) []Row {
	if p.Rows > 0 && p.Rows < len(t.Rows) {
		return t.Rows[:p.Rows]
	}
	return t.Rows
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i, r := range t.rows(p) {
		if err := cw.Write(r); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as right-aligned columns separated by " | ",
// with a dashed line under the header. Cells wider than p.MaxColWidth are
// truncated and end with "..".
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	all := t.rows(p)
	if !p.NoHeader && len(t.Header) > 0 {
		all = append([]Row{t.Header}, all...)
	}
	if len(all) == 0 {
		return nil
	}
	widths := make([]int, len(all[0]))
	for i, r := range all {
		if len(r) != len(widths) {
			return errors.Reason("row %d has %d cells, expected %d", i, len(r), len(widths))
		}
		for j, c := range r {
			if n := len([]rune(c)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	if p.MaxColWidth > 0 {
		for j := range widths {
			if widths[j] > p.MaxColWidth {
				widths[j] = p.MaxColWidth
			}
		}
	}
	line := func(r Row) error {
		cells := make([]string, len(r))
		for j, c := range r {
			if rc := []rune(c); len(rc) > widths[j] {
				c = string(rc[:widths[j]-2]) + ".."
			}
			cells[j] = fmt.Sprintf("%*s", widths[j], c)
		}
		_, err := fmt.Fprintln(w, strings.Join(cells, " | "))
		return err
	}
	for i, r := range all {
		if err := line(r); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
		if i == 0 && !p.NoHeader && len(t.Header) > 0 {
			dashes := make(Row, len(widths))
			for j, n := range widths {
				dashes[j] = strings.Repeat("-", n)
			}
			if err := line(dashes); err != nil {
				return errors.Annotate(err, "failed to write header separator")
			}
		}
	}
	return nil
}
