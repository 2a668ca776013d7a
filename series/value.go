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

package series

import (
	"math"
	"strconv"
	"strings"
)

// Value is a nullable observed value.
type Value struct {
	V     float64
	Valid bool // false means null
}

// Number creates a non-null Value. NaN is stored as null.
func Number(x float64) Value {
	if math.IsNaN(x) {
		return Value{}
	}
	return Value{V: x, Valid: true}
}

// Null is the missing value.
func Null() Value { return Value{} }

// ParseValue coerces a string to a number. Anything that does not parse,
// including an empty string and "NaN", becomes null.
func ParseValue(s string) Value {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Null()
	}
	return Number(x)
}

// String representation; null is an empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'g', -1, 64)
}
