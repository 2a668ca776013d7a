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
	"context"
	"strings"

	"github.com/stockparfait/imf/series"
	"github.com/stockparfait/logging"
)

// Dataset is a handle to a single dataset with a known schema and vocabulary.
type Dataset struct {
	ID         string
	Schema     Schema
	Vocabulary Vocabulary
	requester  Requester
}

// NewDataset binds the dataset description to the requester used to fetch its
// series.
func NewDataset(id string, schema Schema, vocab Vocabulary, r Requester) *Dataset {
	return &Dataset{ID: id, Schema: schema, Vocabulary: vocab, requester: r}
}

// Query validates the filter and builds the query for this dataset.
func (d *Dataset) Query(f *Filter) (*Query, error) {
	return BuildQuery(d.ID, d.Schema, d.Vocabulary, f)
}

// FetchSeries downloads the series selected by the filter (nil means
// everything) and flattens them into rows with a column per dimension.
func (d *Dataset) FetchSeries(ctx context.Context, f *Filter) (series.Rows, error) {
	q, err := d.Query(f)
	if err != nil {
		return nil, err
	}
	if len(q.Ignored) > 0 {
		logging.Warningf(ctx, "IMF: %s: dimensions not used in the query: %s",
			d.ID, strings.Join(q.Ignored, ", "))
	}
	var data CompactData
	if err := d.requester.Request(ctx, q.Path(), q.Values(), &data); err != nil {
		return nil, err
	}
	rows := Shape(ctx, &data, d.Schema.Names())
	logging.Infof(ctx, "IMF: %s: fetched %d series, %d rows",
		q.Path(), len(data.CompactData.DataSet.Series), len(rows))
	return rows, nil
}
