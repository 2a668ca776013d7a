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

// Package series is the tabular form of statistical time series.
//
// Each Row is a single observation: a time Period, a nullable numeric Value,
// and the values of the dimensions identifying the series it belongs to. Rows
// can be regrouped into series by their dimension values and summarized.
package series
