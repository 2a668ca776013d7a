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
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/batch"
	"github.com/stockparfait/imf/imf"
	"github.com/stockparfait/logging"
)

type Flags struct {
	Config   string // default: ~/.imf/download.toml
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("imf-download", flag.ExitOnError)
	fs.StringVar(&flags.Config, "conf",
		filepath.Join(os.Getenv("HOME"), ".imf", "download.toml"),
		"job configuration file")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	return &flags, err
}

func download(ctx context.Context, flags *Flags) (*batch.Stats, error) {
	config, err := batch.ReadConfig(flags.Config)
	if err != nil {
		return nil, errors.Annotate(err, "failed to parse config")
	}
	ctx = imf.UseClient(ctx, imf.NewClient(imf.DefaultRequester(config.URL)))
	ds, err := imf.LoadDataset(ctx, config.Dataset)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load dataset %s", config.Dataset)
	}
	stats, err := batch.Run(ctx, ds, config)
	if err != nil {
		return nil, errors.Annotate(err, "failed to download %s", config.Dataset)
	}
	logging.Infof(ctx, "%s: download complete, output in %s", config.Dataset, config.Output)
	for _, line := range stats.Report(ds.Schema.Names()) {
		logging.Infof(ctx, "  %s", line)
	}
	return stats, nil
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

	stats, err := download(ctx, flags)
	if err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(2)
	}
}
