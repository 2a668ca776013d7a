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
	"sort"

	"github.com/stockparfait/logging"
)

// Dataflow describes a dataset published by the service.
type Dataflow struct {
	ID          string
	Description string
}

type rawDataflow struct {
	ID           string `json:"@id"`
	KeyFamilyRef struct {
		KeyFamilyID       string `json:"KeyFamilyID"`
		KeyFamilyAgencyID string `json:"KeyFamilyAgencyID"`
	} `json:"KeyFamilyRef"`
	Name Text `json:"Name"`
}

// dataflowResponse is the JSON envelope of the Dataflow endpoint.
type dataflowResponse struct {
	Structure struct {
		Dataflows struct {
			Dataflow List[rawDataflow] `json:"Dataflow"`
		} `json:"Dataflows"`
	} `json:"Structure"`
}

// dataflowCache is the dataset catalog, populated at most once.
type dataflowCache struct {
	populated bool
	flows     []Dataflow // sorted by ID
	ids       map[string]struct{}
}

func (c *dataflowCache) populate(resp *dataflowResponse) {
	c.ids = make(map[string]struct{})
	c.flows = nil
	for _, f := range resp.Structure.Dataflows.Dataflow {
		id := f.KeyFamilyRef.KeyFamilyID
		if _, ok := c.ids[id]; ok || id == "" {
			continue
		}
		c.ids[id] = struct{}{}
		c.flows = append(c.flows, Dataflow{ID: id, Description: string(f.Name)})
	}
	sort.SliceStable(c.flows, func(i, j int) bool { return c.flows[i].ID < c.flows[j].ID })
	c.populated = true
}

func (c *dataflowCache) validIDs() []string {
	res := make([]string, len(c.flows))
	for i, f := range c.flows {
		res[i] = f.ID
	}
	return res
}

// dataflows fetches the catalog on the first call and returns the cache.
func (c *Client) dataflows(ctx context.Context) (*dataflowCache, error) {
	if c.flows.populated {
		return &c.flows, nil
	}
	var resp dataflowResponse
	if err := c.requester.Request(ctx, "Dataflow", nil, &resp); err != nil {
		return nil, err
	}
	c.flows.populate(&resp)
	logging.Infof(ctx, "IMF: fetched %d dataflows", len(c.flows.flows))
	return &c.flows, nil
}

// ListDatasets returns the catalog of datasets sorted by ID. Only the first
// call makes a request. The returned slice is a copy.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataflow, error) {
	flows, err := c.dataflows(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Dataflow{}, flows.flows...), nil
}

// ValidateID returns *InvalidDatasetError when id is not in the catalog.
func (c *Client) ValidateID(ctx context.Context, id string) error {
	flows, err := c.dataflows(ctx)
	if err != nil {
		return err
	}
	if _, ok := flows.ids[id]; !ok {
		return &InvalidDatasetError{ID: id, Valid: flows.validIDs()}
	}
	return nil
}
