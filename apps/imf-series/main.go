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

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/imf"
	"github.com/stockparfait/imf/series"
	"github.com/stockparfait/imf/table"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/slices"
)

// dimFlag collects repeated "-dim name=v1,v2" arguments.
type dimFlag map[string][]string

var _ flag.Value = dimFlag{}

func (d dimFlag) String() string {
	parts := make([]string, 0, len(d))
	for k, v := range d {
		parts = append(parts, k+"="+strings.Join(v, ","))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}

func (d dimFlag) Set(s string) error {
	name, values, ok := strings.Cut(s, "=")
	if !ok || name == "" || values == "" {
		return errors.Reason("expected name=value1,value2..., got '%s'", s)
	}
	d[strings.ToLower(name)] = append(d[strings.ToLower(name)], strings.Split(values, ",")...)
	return nil
}

type Flags struct {
	URL      string // default: imf.URL
	Dataset  string // required
	Dims     dimFlag
	Start    string
	End      string
	LogLevel logging.Level
	Summary  bool // print a summary row per series instead of the rows
	Rows     int  // max. rows to print; 0 = all
	CSV      bool // dump CSV format; default: text.
}

func parseFlags(args []string) (*Flags, error) {
	flags := Flags{Dims: make(dimFlag)}
	fs := flag.NewFlagSet("imf-series", flag.ExitOnError)
	fs.StringVar(&flags.URL, "url", imf.URL, "IMF SDMX-JSON service URL")
	fs.StringVar(&flags.Dataset, "dataset", "", "dataset ID (required)")
	fs.Var(flags.Dims, "dim", "dimension filter name=value1,value2 (repeated)")
	fs.StringVar(&flags.Start, "start", "", "first period, e.g. 2005 or 2005-Q1")
	fs.StringVar(&flags.End, "end", "", "last period")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.Summary, "summary", false, "print summary statistics per series")
	fs.IntVar(&flags.Rows, "rows", 0, "max. number of rows to print, 0 = all")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Dataset == "" {
		return nil, errors.Reason("missing required -dataset argument")
	}
	if flags.Rows < 0 {
		return nil, errors.Reason("-rows must be non-negative")
	}
	return &flags, nil
}

func (f *Flags) filter() *imf.Filter {
	filter := imf.NewFilter().Start(f.Start).End(f.End)
	for d, v := range f.Dims {
		filter = filter.Equal(d, v...)
	}
	return filter
}

// columns are the schema dimensions present in the rows, in schema order.
func columns(schema imf.Schema, rows series.Rows) []string {
	present := rows.Dimensions()
	var dims []string
	for _, name := range schema.Names() {
		if slices.Contains(present, name) {
			dims = append(dims, name)
		}
	}
	return dims
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	ctx = imf.UseClient(ctx, imf.NewClient(imf.DefaultRequester(flags.URL)))
	ds, err := imf.LoadDataset(ctx, flags.Dataset)
	if err != nil {
		return errors.Annotate(err, "failed to load dataset %s", flags.Dataset)
	}
	rows, err := ds.FetchSeries(ctx, flags.filter())
	if err != nil {
		return errors.Annotate(err, "failed to fetch series")
	}
	dims := columns(ds.Schema, rows)
	var tbl *table.Table
	if flags.Summary {
		tbl = table.FromSummaries(series.Summarize(rows, dims), dims)
	} else {
		tbl = table.FromRows(rows, dims)
	}
	p := table.Params{Rows: flags.Rows}
	if flags.CSV {
		if err := tbl.WriteCSV(w, p); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := tbl.WriteText(w, p); err != nil {
		return errors.Annotate(err, "failed to print text")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := printData(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
