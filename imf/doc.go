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

// Package imf implements a client for the IMF SDMX-JSON data service.
//
// The service publishes a catalog of datasets (dataflows). Each dataset has a
// data structure: an ordered list of dimensions, such as frequency, reference
// area and indicator, each with a code list of valid values. A series is
// identified by a value of every dimension, and a query selects series by a
// positional key of dimension values.
//
// A typical use:
//
//	ctx = imf.UseDefaultClient(ctx)
//	bop, err := imf.LoadDataset(ctx, "BOP")
//	f := imf.NewFilter().Equal("freq", "Q").Equal("ref_area", "ES", "PT").Start("2005")
//	rows, err := bop.FetchSeries(ctx, f)
//
// All the requests of a process share DefaultLimiter, which allows at most 10
// requests per 5 seconds, and each request is attempted up to 3 times.
//
// The JSON returned by the service sends a list with a single element as a
// bare object; List decodes both shapes into a slice.
package imf
