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
	"encoding/json"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/imf/series"
	"github.com/stockparfait/logging"
)

// Observation attribute names.
const (
	TimePeriodField = "@TIME_PERIOD"
	ObsValueField   = "@OBS_VALUE"
)

// Observation is a single raw observation: attribute name -> value.
type Observation map[string]string

var _ json.Unmarshaler = &Observation{}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Annotate(err, "observation must be a JSON object")
	}
	*o = make(Observation, len(raw))
	for k, v := range raw {
		(*o)[k] = scalar(v)
	}
	return nil
}

// Series is a single raw series: its attributes, including the dimension
// values (e.g. "@REF_AREA"), and its observations.
type Series struct {
	Attributes map[string]string
	Obs        List[Observation]
	malformed  bool // some part of the series is not a JSON object
}

var _ json.Unmarshaler = &Series{}

// UnmarshalJSON implements json.Unmarshaler. A series or an observation which
// is not a JSON object does not fail the decoding; the series is marked as
// malformed instead, and Shape skips it.
func (s *Series) UnmarshalJSON(data []byte) error {
	s.Attributes = make(map[string]string)
	s.Obs = nil
	s.malformed = false
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.malformed = true
		return nil
	}
	for k, v := range raw {
		if k != "Obs" {
			s.Attributes[k] = scalar(v)
		}
	}
	obs, ok := raw["Obs"]
	if !ok {
		return nil
	}
	var items List[json.RawMessage]
	if err := json.Unmarshal(obs, &items); err != nil {
		s.malformed = true
		return nil
	}
	for _, item := range items {
		var o Observation
		if err := json.Unmarshal(item, &o); err != nil {
			s.malformed = true
			continue
		}
		s.Obs = append(s.Obs, o)
	}
	return nil
}

// wellFormed checks that the observations, taken together, have at least two
// fields, one of which is the time period.
func (s *Series) wellFormed() bool {
	if s.malformed {
		return false
	}
	fields := make(map[string]struct{})
	for _, o := range s.Obs {
		for k := range o {
			fields[k] = struct{}{}
		}
	}
	_, ok := fields[TimePeriodField]
	return ok && len(fields) >= 2
}

// dimensions returns the values of dims found in the series attributes.
func (s *Series) dimensions(dims []string) map[string]string {
	var res map[string]string
	for _, d := range dims {
		v, ok := s.Attributes["@"+strings.ToUpper(d)]
		if !ok {
			continue
		}
		if res == nil {
			res = make(map[string]string)
		}
		res[d] = v
	}
	return res
}

// CompactData is the JSON envelope of the CompactData endpoint.
type CompactData struct {
	CompactData struct {
		DataSet struct {
			Series List[Series] `json:"Series"`
		} `json:"DataSet"`
	} `json:"CompactData"`
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	res := make(map[string]string, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

// attributes of the observation other than its time period and value, with
// the '@' prefix removed.
func (o Observation) attributes() map[string]string {
	var res map[string]string
	for k, v := range o {
		if k == TimePeriodField || k == ObsValueField {
			continue
		}
		if res == nil {
			res = make(map[string]string)
		}
		res[strings.TrimPrefix(k, "@")] = v
	}
	return res
}

// Shape flattens the series into rows, in the order of series and of their
// observations. Each row gets a column for each of dims present in its series'
// attributes. A series whose observations lack a time period or have fewer than
// two fields is logged and skipped; so is an individual observation without a
// time period. Unparseable values become null. The result is never nil.
func Shape(ctx context.Context, data *CompactData, dims []string) series.Rows {
	rows := series.Rows{}
	if data == nil {
		return rows
	}
	for i := range data.CompactData.DataSet.Series {
		s := &data.CompactData.DataSet.Series[i]
		if len(s.Obs) == 0 && !s.malformed {
			logging.Debugf(ctx, "IMF: series %d has no observations", i)
			continue
		}
		if !s.wellFormed() {
			logging.Warningf(ctx, "IMF: unexpected observation structure in series %d %v, skipping",
				i, s.Attributes)
			continue
		}
		labels := s.dimensions(dims)
		for j, o := range s.Obs {
			tp, ok := o[TimePeriodField]
			if !ok {
				logging.Warningf(ctx, "IMF: observation %d in series %d has no time period, skipping",
					j, i)
				continue
			}
			p, err := series.ParsePeriod(tp)
			if err != nil {
				logging.Warningf(ctx, "IMF: %s", err.Error())
				p = series.RawPeriod(tp)
			}
			rows = append(rows, series.Row{
				Period:     p,
				Value:      series.ParseValue(o[ObsValueField]),
				Dimensions: copyMap(labels),
				Attributes: o.attributes(),
			})
		}
	}
	return rows
}
