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
	"fmt"
	"strings"

	"github.com/stockparfait/logging"
)

// DimensionRef is a key family dimension as declared by the service.
type DimensionRef struct {
	ConceptRef  string `json:"@conceptRef"`
	CodeList    string `json:"@codelist"`
	IsFrequency string `json:"@isFrequencyDimension"`
}

// KeyFamily is the declared structure of a dataset.
type KeyFamily struct {
	ID         string `json:"@id"`
	Name       Text   `json:"Name"`
	Components struct {
		Dimension List[DimensionRef] `json:"Dimension"`
	} `json:"Components"`
}

// RawCode is a code list entry as sent by the service.
type RawCode struct {
	Value       string `json:"@value"`
	Description Text   `json:"Description"`
}

// CodeList is a controlled vocabulary as sent by the service.
type CodeList struct {
	ID   string        `json:"@id"`
	Name Text          `json:"Name"`
	Code List[RawCode] `json:"Code"`
}

// DataStructure is the JSON envelope of the DataStructure/{id} endpoint.
type DataStructure struct {
	Structure struct {
		KeyFamilies struct {
			KeyFamily List[KeyFamily] `json:"KeyFamily"`
		} `json:"KeyFamilies"`
		CodeLists struct {
			CodeList List[CodeList] `json:"CodeList"`
		} `json:"CodeLists"`
	} `json:"Structure"`
}

// keyFamily returns the key family of the dataset, or the first one when none
// matches by ID.
func (ds *DataStructure) keyFamily(id string) (*KeyFamily, bool) {
	kfs := ds.Structure.KeyFamilies.KeyFamily
	for i := range kfs {
		if kfs[i].ID == id {
			return &kfs[i], true
		}
	}
	if len(kfs) == 0 {
		return nil, false
	}
	return &kfs[0], true
}

func (ds *DataStructure) codeList(id string) (*CodeList, bool) {
	for i, cl := range ds.Structure.CodeLists.CodeList {
		if cl.ID == id {
			return &ds.Structure.CodeLists.CodeList[i], true
		}
	}
	return nil, false
}

// structureCache maps dataset ID to its data structure.
type structureCache map[string]*DataStructure

// Dimension of a dataset: its lower-cased name and the ID of its code list.
type Dimension struct {
	Name     string
	CodeList string
}

// Schema is the list of dataset dimensions in the declared order.
type Schema []Dimension

// Names of the dimensions, in order.
func (s Schema) Names() []string {
	res := make([]string, len(s))
	for i, d := range s {
		res[i] = d.Name
	}
	return res
}

// Index of the dimension, or -1.
func (s Schema) Index(name string) int {
	for i, d := range s {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// String prints the schema as {name: codelist, ...}.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%s: %s", d.Name, d.CodeList)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Code is a valid dimension value with its description.
type Code struct {
	Value       string
	Description string
}

// Vocabulary maps a dimension name to its valid values, in the order of the
// code list.
type Vocabulary map[string][]Code

// Values returns the valid values of the dimension.
func (v Vocabulary) Values(dim string) []string {
	codes := v[dim]
	res := make([]string, len(codes))
	for i, c := range codes {
		res[i] = c.Value
	}
	return res
}

// valueSet returns the valid values of the dimension as a set.
func (v Vocabulary) valueSet(dim string) map[string]struct{} {
	set := make(map[string]struct{}, len(v[dim]))
	for _, c := range v[dim] {
		set[c.Value] = struct{}{}
	}
	return set
}

// Contains checks whether value is valid for the dimension.
func (v Vocabulary) Contains(dim, value string) bool {
	for _, c := range v[dim] {
		if c.Value == value {
			return true
		}
	}
	return false
}

// DataStructure validates the dataset ID and returns its data structure,
// fetching it on the first request for this ID.
func (c *Client) DataStructure(ctx context.Context, id string) (*DataStructure, error) {
	if err := c.ValidateID(ctx, id); err != nil {
		return nil, err
	}
	if ds, ok := c.structures[id]; ok {
		return ds, nil
	}
	var ds DataStructure
	if err := c.requester.Request(ctx, "DataStructure/"+id, nil, &ds); err != nil {
		return nil, err
	}
	c.structures[id] = &ds
	logging.Infof(ctx, "IMF: fetched data structure for %s", id)
	return &ds, nil
}

// Schema returns the dimensions of the dataset.
func (c *Client) Schema(ctx context.Context, id string) (Schema, error) {
	ds, err := c.DataStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return ExtractSchema(id, ds)
}

// Vocabulary returns the code lists of the schema dimensions of the dataset.
func (c *Client) Vocabulary(ctx context.Context, id string, schema Schema) (Vocabulary, error) {
	ds, err := c.DataStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return ExtractVocabulary(id, ds, schema)
}

// ExtractSchema lists the dimensions of the dataset's key family.
func ExtractSchema(id string, ds *DataStructure) (Schema, error) {
	kf, ok := ds.keyFamily(id)
	if !ok {
		return nil, &MalformedSchemaError{Dataset: id, Reason: "no key family"}
	}
	var schema Schema
	for _, d := range kf.Components.Dimension {
		name := strings.ToLower(d.ConceptRef)
		if name == "" {
			return nil, &MalformedSchemaError{Dataset: id, Reason: "dimension without a name"}
		}
		if schema.Index(name) >= 0 {
			return nil, &MalformedSchemaError{Dataset: id,
				Reason: fmt.Sprintf("duplicate dimension '%s'", name)}
		}
		schema = append(schema, Dimension{Name: name, CodeList: d.CodeList})
	}
	return schema, nil
}

// ExtractVocabulary collects the codes of each schema dimension from its code
// list. Every dimension must have a non-empty code list.
func ExtractVocabulary(id string, ds *DataStructure, schema Schema) (Vocabulary, error) {
	vocab := make(Vocabulary, len(schema))
	for _, d := range schema {
		cl, ok := ds.codeList(d.CodeList)
		if !ok {
			return nil, &MalformedSchemaError{Dataset: id, Reason: fmt.Sprintf(
				"code list '%s' for dimension '%s' not found", d.CodeList, d.Name)}
		}
		if len(cl.Code) == 0 {
			return nil, &MalformedSchemaError{Dataset: id, Reason: fmt.Sprintf(
				"code list '%s' for dimension '%s' is empty", d.CodeList, d.Name)}
		}
		codes := make([]Code, len(cl.Code))
		for i, rc := range cl.Code {
			codes[i] = Code{Value: rc.Value, Description: string(rc.Description)}
		}
		vocab[d.Name] = codes
	}
	return vocab, nil
}
