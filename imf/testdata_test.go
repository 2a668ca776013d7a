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
	"net/url"

	"github.com/stockparfait/errors"
)

const testDataflowJSON = `{"Structure": {"Dataflows": {"Dataflow": [
  {"@id": "GFS_01", "KeyFamilyRef": {"KeyFamilyID": "GFS", "KeyFamilyAgencyID": "IMF"},
   "Name": {"@xml:lang": "en", "#text": "Government Finance Statistics"}},
  {"@id": "BOP_01", "KeyFamilyRef": {"KeyFamilyID": "BOP", "KeyFamilyAgencyID": "IMF"},
   "Name": [{"@xml:lang": "fr", "#text": "Balance des paiements"},
            {"@xml:lang": "en", "#text": "Balance of Payments"}]}
]}}}`

const testBOPStructureJSON = `{"Structure": {
  "KeyFamilies": {"KeyFamily": {"@id": "BOP", "Name": "BOP",
    "Components": {"Dimension": [
      {"@conceptRef": "FREQ", "@codelist": "CL_FREQ", "@isFrequencyDimension": "true"},
      {"@conceptRef": "INDICATOR", "@codelist": "CL_INDICATOR_BOP"},
      {"@conceptRef": "REF_AREA", "@codelist": "CL_AREA_BOP"}
    ]}}},
  "CodeLists": {"CodeList": [
    {"@id": "CL_FREQ", "Name": {"#text": "Frequency"}, "Code": [
      {"@value": "A", "Description": {"@xml:lang": "en", "#text": "Annual"}},
      {"@value": "Q", "Description": {"@xml:lang": "en", "#text": "Quarterly"}}]},
    {"@id": "CL_AREA_BOP", "Name": {"#text": "Area"}, "Code": [
      {"@value": "ES", "Description": {"#text": "Spain"}},
      {"@value": "PT", "Description": {"#text": "Portugal"}}]},
    {"@id": "CL_INDICATOR_BOP", "Name": {"#text": "Indicator"}, "Code":
      {"@value": "BXGS_BP6_USD", "Description": {"#text": "Goods and services, credit"}}}
  ]}}}`

const testGFSStructureJSON = `{"Structure": {
  "KeyFamilies": {"KeyFamily": {"@id": "GFS",
    "Components": {"Dimension": [
      {"@conceptRef": "FREQ", "@codelist": "CL_FREQ"},
      {"@conceptRef": "REF_AREA", "@codelist": "CL_AREA"},
      {"@conceptRef": "REF_SECTOR", "@codelist": "CL_SECTOR"},
      {"@conceptRef": "INDICATOR", "@codelist": "CL_INDICATOR"}
    ]}}},
  "CodeLists": {"CodeList": [
    {"@id": "CL_FREQ", "Code": [{"@value": "A", "Description": "Annual"}]},
    {"@id": "CL_AREA", "Code": [{"@value": "US", "Description": "United States"},
                                {"@value": "FR", "Description": "France"}]},
    {"@id": "CL_SECTOR", "Code": [{"@value": "S13", "Description": "General government"}]},
    {"@id": "CL_INDICATOR", "Code": [{"@value": "G1_XDC", "Description": "Revenue"},
                                     {"@value": "G2_XDC", "Description": "Expense"}]}
  ]}}}`

const testBOPDataJSON = `{"CompactData": {"DataSet": {"Series": [
  {"@FREQ": "Q", "@REF_AREA": "ES", "@INDICATOR": "BXGS_BP6_USD", "@UNIT_MULT": "6",
   "Obs": [{"@TIME_PERIOD": "2020-Q1", "@OBS_VALUE": "12.5"},
           {"@TIME_PERIOD": "2020-Q2", "@OBS_VALUE": "n/a", "@OBS_STATUS": "NA"}]},
  {"@FREQ": "Q", "@REF_AREA": "PT", "@INDICATOR": "BXGS_BP6_USD",
   "Obs": {"@TIME_PERIOD": "2020-Q1", "@OBS_VALUE": "3"}}
]}}}`

// fakeService serves canned JSON bodies by endpoint and records the calls.
type fakeService struct {
	responses map[string]string
	failures  map[string]int // number of failures before succeeding
	calls     map[string]int
	params    map[string]url.Values
}

func newFakeService() *fakeService {
	return &fakeService{
		responses: map[string]string{
			"Dataflow":                 testDataflowJSON,
			"DataStructure/BOP":        testBOPStructureJSON,
			"DataStructure/GFS":        testGFSStructureJSON,
			"CompactData/BOP/Q.ES+PT.": testBOPDataJSON,
		},
		failures: make(map[string]int),
		calls:    make(map[string]int),
		params:   make(map[string]url.Values),
	}
}

var _ Requester = &fakeService{}

func (s *fakeService) Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	s.calls[endpoint]++
	s.params[endpoint] = params
	if s.failures[endpoint] > 0 {
		s.failures[endpoint]--
		return errors.Reason("connection refused")
	}
	body, ok := s.responses[endpoint]
	if !ok {
		return errors.Reason("404 Not Found: %s", endpoint)
	}
	return json.Unmarshal([]byte(body), result)
}

func (s *fakeService) totalCalls() int {
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}
