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
	"os"

	"github.com/stockparfait/errors"
)

// Appender accumulates rows in memory and appends them to a CSV file on each
// Flush. The header is written once, with the first flush into an empty file.
type Appender struct {
	fileName string
	header   []string
	pending  []Row
	written  int  // rows flushed so far
	started  bool // the file is known to have a header
}

// NewAppender creates an Appender for fileName. With truncate, any existing
// content of the file is discarded; otherwise rows are added after it.
func NewAppender(fileName string, header []string, truncate bool) (*Appender, error) {
	a := &Appender{fileName: fileName, header: header}
	if truncate {
		if err := os.Truncate(fileName, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err, "failed to truncate '%s'", fileName)
		}
		return a, nil
	}
	st, err := os.Stat(fileName)
	if err == nil && st.Size() > 0 {
		a.started = true
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Annotate(err, "failed to check '%s'", fileName)
	}
	return a, nil
}

// Add rows to the pending buffer.
func (a *Appender) Add(rows ...Row) {
	a.pending = append(a.pending, rows...)
}

// Pending is the number of rows not yet flushed.
func (a *Appender) Pending() int { return len(a.pending) }

// Written is the number of rows flushed to the file by this Appender.
func (a *Appender) Written() int { return a.written }

// Flush appends the pending rows to the file.
func (a *Appender) Flush() error {
	if len(a.pending) == 0 && a.started {
		return nil
	}
	f, err := os.OpenFile(a.fileName, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open '%s' for appending", a.fileName)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if !a.started && len(a.header) > 0 {
		if err := cw.Write(a.header); err != nil {
			return errors.Annotate(err, "failed to write header to '%s'", a.fileName)
		}
	}
	for _, r := range a.pending {
		if err := cw.Write(r); err != nil {
			return errors.Annotate(err, "failed to write row to '%s'", a.fileName)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush '%s'", a.fileName)
	}
	a.started = true
	a.written += len(a.pending)
	a.pending = nil
	return nil
}
