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

package batch

import (
	"io"
	"os"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/imf"

	toml "github.com/pelletier/go-toml/v2"
)

// SampleConfig is printed when the config file is missing.
const SampleConfig = `dataset = "BOP"
output = "bop.csv"
start = "2005"
chunk_size = 10  # default size of the chunks below
flush_every = 50
truncate = true

[filter]
freq = ["Q"]

# Requests cover the cross product of the chunks of every dimension below.
[[chunk]]
dimension = "indicator"
size = 2
values = ["BXGS_BP6_USD", "BMGS_BP6_USD"]

[[chunk]]
dimension = "ref_area"
size = 6  # values omitted: all the codes of the dimension
`

// Chunk splits the values of one dimension between requests.
type Chunk struct {
	Dimension string   `toml:"dimension"` // required
	Size      int      `toml:"size"`      // default: Config.ChunkSize
	Values    []string `toml:"values"`    // default: the whole code list
}

// Config of a batch download job.
type Config struct {
	URL        string              `toml:"url"`         // default: imf.URL
	Dataset    string              `toml:"dataset"`     // required
	Output     string              `toml:"output"`      // CSV file, required
	Start      string              `toml:"start"`       // first period, optional
	End        string              `toml:"end"`         // last period, optional
	ChunkSize  int                 `toml:"chunk_size"`  // default: 10
	FlushEvery int                 `toml:"flush_every"` // chunks per flush, default: 1
	Truncate   bool                `toml:"truncate"`    // start a new output file
	Filter     map[string][]string `toml:"filter"`      // fixed dimension values
	Chunks     []Chunk             `toml:"chunk"`       // outermost first
}

// Init sets the defaults and checks the values.
func (c *Config) Init() error {
	if c.URL == "" {
		c.URL = imf.URL
	}
	if c.Dataset == "" {
		return errors.Reason("missing required 'dataset'")
	}
	if c.Output == "" {
		return errors.Reason("missing required 'output'")
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 10
	}
	if c.ChunkSize < 0 {
		return errors.Reason("chunk_size=%d must be positive", c.ChunkSize)
	}
	if c.FlushEvery == 0 {
		c.FlushEvery = 1
	}
	if c.FlushEvery < 0 {
		return errors.Reason("flush_every=%d must be positive", c.FlushEvery)
	}
	filter := make(map[string][]string, len(c.Filter))
	for d, v := range c.Filter {
		filter[strings.ToLower(d)] = v
	}
	c.Filter = filter
	seen := make(map[string]bool)
	for i := range c.Chunks {
		ch := &c.Chunks[i]
		ch.Dimension = strings.ToLower(ch.Dimension)
		if ch.Dimension == "" {
			return errors.Reason("chunk %d: missing required 'dimension'", i+1)
		}
		if seen[ch.Dimension] {
			return errors.Reason("chunk dimension '%s' is repeated", ch.Dimension)
		}
		seen[ch.Dimension] = true
		if _, ok := c.Filter[ch.Dimension]; ok {
			return errors.Reason("chunk dimension '%s' is also in the filter",
				ch.Dimension)
		}
		if ch.Size == 0 {
			ch.Size = c.ChunkSize
		}
		if ch.Size < 0 {
			return errors.Reason("chunk '%s': size=%d must be positive",
				ch.Dimension, ch.Size)
		}
	}
	return nil
}

// Filter of the job without the chunk dimension.
func (c *Config) filter() *imf.Filter {
	f := imf.NewFilter().Start(c.Start).End(c.End)
	for d, v := range c.Filter {
		f = f.Equal(d, v...)
	}
	return f
}

// DecodeConfig reads a TOML config and initializes it. Unknown keys are
// rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to decode config")
	}
	if err := c.Init(); err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	return &c, nil
}

// ReadConfig reads the config file. When the file is missing, the error
// includes a sample config.
func ReadConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				filePath, SampleConfig)
		}
		return nil, errors.Annotate(err,
			"cannot check config file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	c, err := DecodeConfig(f)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return c, nil
}
