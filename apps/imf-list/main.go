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

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/imf"
	"github.com/stockparfait/imf/table"
	"github.com/stockparfait/logging"
)

type Flags struct {
	URL      string // default: imf.URL
	Dataset  string // print the dimensions of this dataset; default: all datasets
	LogLevel logging.Level
	CSV      bool // dump CSV format; default: text.
	MaxWidth int  // max. text column width
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("imf-list", flag.ExitOnError)
	fs.StringVar(&flags.URL, "url", imf.URL, "IMF SDMX-JSON service URL")
	fs.StringVar(&flags.Dataset, "dataset", "",
		"print dimensions and codes of this dataset")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	fs.IntVar(&flags.MaxWidth, "width", 60, "max. column width for text output, 0 = unlimited")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.MaxWidth != 0 && flags.MaxWidth < 4 {
		return nil, errors.Reason("-width must be 0 or at least 4")
	}
	return &flags, nil
}

func datasetsTable(ctx context.Context) (*table.Table, error) {
	flows, err := imf.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	tbl := table.NewTable("ID", "Description")
	for _, f := range flows {
		tbl.AddRow(table.Row{f.ID, f.Description})
	}
	return tbl, nil
}

func dimensionsTable(ctx context.Context, id string) (*table.Table, error) {
	ds, err := imf.LoadDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	tbl := table.NewTable("Dimension", "Code List", "Value", "Description")
	for _, d := range ds.Schema {
		for _, c := range ds.Vocabulary[d.Name] {
			tbl.AddRow(table.Row{d.Name, d.CodeList, c.Value, c.Description})
		}
	}
	return tbl, nil
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	ctx = imf.UseClient(ctx, imf.NewClient(imf.DefaultRequester(flags.URL)))
	var tbl *table.Table
	var err error
	if flags.Dataset == "" {
		if tbl, err = datasetsTable(ctx); err != nil {
			return errors.Annotate(err, "failed to list datasets")
		}
	} else {
		if tbl, err = dimensionsTable(ctx, flags.Dataset); err != nil {
			return errors.Annotate(err, "failed to load dataset %s", flags.Dataset)
		}
	}
	if flags.CSV {
		if err := tbl.WriteCSV(w, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := tbl.WriteText(w, table.Params{MaxColWidth: flags.MaxWidth}); err != nil {
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
