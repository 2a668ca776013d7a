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
	"fmt"
	"strings"
)

// TransportError is returned when a request failed on every attempt.
type TransportError struct {
	Endpoint string
	Attempts int
	Err      error // the error of the last attempt
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempt(s): %s",
		e.Endpoint, e.Attempts, errorString(e.Err))
}

// errorString guards against errors whose Error method cannot handle a nil
// cause.
func errorString(err error) (s string) {
	if err == nil {
		return "unknown error"
	}
	defer func() {
		if recover() != nil {
			s = fmt.Sprintf("%T", err)
		}
	}()
	return err.Error()
}

// Unwrap gives access to the last attempt's error.
func (e *TransportError) Unwrap() error { return e.Err }

// InvalidDatasetError is returned for a dataset ID absent from the catalog.
type InvalidDatasetError struct {
	ID    string
	Valid []string // all valid IDs, sorted
}

func (e *InvalidDatasetError) Error() string {
	return fmt.Sprintf("dataset ID '%s' not found in the dataflow catalog; valid IDs are: %s",
		e.ID, strings.Join(e.Valid, ", "))
}

// InvalidValues lists the rejected values of a single filter dimension.
type InvalidValues struct {
	Dimension string
	Values    []string // values not in the dimension's code list
	Unknown   bool     // the dimension itself does not exist
}

// InvalidFilterError is returned when a filter selects values outside the
// controlled vocabulary of their dimensions.
type InvalidFilterError struct {
	Dataset string
	Invalid []InvalidValues
}

// Dimensions returns the names of the offending dimensions.
func (e *InvalidFilterError) Dimensions() []string {
	res := make([]string, len(e.Invalid))
	for i, v := range e.Invalid {
		res[i] = v.Dimension
	}
	return res
}

func (e *InvalidFilterError) Error() string {
	parts := make([]string, len(e.Invalid))
	for i, v := range e.Invalid {
		if v.Unknown {
			parts[i] = fmt.Sprintf("unknown dimension '%s'", v.Dimension)
			continue
		}
		parts[i] = fmt.Sprintf("invalid value(s) [%s] for dimension '%s'",
			strings.Join(v.Values, ", "), v.Dimension)
	}
	return fmt.Sprintf("invalid filter for dataset %s: %s", e.Dataset,
		strings.Join(parts, "; "))
}

// MalformedSchemaError indicates a data structure inconsistent with itself,
// e.g. a dimension referring to a missing code list.
type MalformedSchemaError struct {
	Dataset string
	Reason  string
}

func (e *MalformedSchemaError) Error() string {
	return fmt.Sprintf("malformed data structure for dataset %s: %s", e.Dataset, e.Reason)
}
