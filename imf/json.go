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
	"bytes"
	"encoding/json"

	"github.com/stockparfait/errors"
)

// List is a JSON field which the service sends as a bare object when there is
// exactly one element, and as an array otherwise. Both shapes decode into a
// slice. A missing field or null decodes into an empty List.
type List[T any] []T

var _ json.Unmarshaler = &List[int]{}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return errors.Annotate(err, "failed to decode a list")
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return errors.Annotate(err, "failed to decode a single list element")
	}
	*l = List[T]{item}
	return nil
}

// langText is a localized string: {"@xml:lang": "en", "#text": "..."}.
type langText struct {
	Lang string `json:"@xml:lang"`
	Text string `json:"#text"`
}

// Text is a human-readable string which may come as a plain JSON string, a
// localized object, or a list of localized objects. English is preferred
// among several languages, otherwise the first one is used.
type Text string

var _ json.Unmarshaler = new(Text)

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var variants List[langText]
	if err := json.Unmarshal(data, &variants); err != nil {
		return errors.Annotate(err, "failed to decode text")
	}
	*t = ""
	for i, v := range variants {
		if i == 0 || v.Lang == "en" {
			*t = Text(v.Text)
		}
		if v.Lang == "en" {
			break
		}
	}
	return nil
}

// scalar converts a JSON scalar to its string form: strings are unquoted,
// numbers and booleans are kept as written, null is empty.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}
