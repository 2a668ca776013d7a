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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

// Frequency of a time period, as encoded in the SDMX TIME_PERIOD strings.
type Frequency uint8

// Values of Frequency.
const (
	Unknown Frequency = iota
	Annual
	HalfYearly
	Quarterly
	Monthly
	Weekly
	Daily
)

// String returns the SDMX frequency code.
func (f Frequency) String() string {
	switch f {
	case Annual:
		return "A"
	case HalfYearly:
		return "S"
	case Quarterly:
		return "Q"
	case Monthly:
		return "M"
	case Weekly:
		return "W"
	case Daily:
		return "D"
	}
	return "?"
}

// Period is a parsed TIME_PERIOD: its frequency and the first day of the
// period in UTC. A period which could not be parsed has Unknown frequency, a
// zero Start and keeps the original text.
type Period struct {
	Freq  Frequency
	Start time.Time
	raw   string // only for Unknown
}

var _ json.Marshaler = Period{}

// NewPeriod creates a Period of the given frequency starting on the given date.
func NewPeriod(freq Frequency, year int, month time.Month, day int) Period {
	return Period{Freq: freq, Start: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// RawPeriod wraps an unparseable period string.
func RawPeriod(s string) Period {
	return Period{Freq: Unknown, raw: s}
}

// ParsePeriod parses the TIME_PERIOD formats used by the service: 2020,
// 2020-S1 (also 2020-B1), 2020-Q1, 2020-M01, 2020-01, 2020-W05 and 2020-01-31.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006", s); err == nil {
		return Period{Freq: Annual, Start: t}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Period{Freq: Daily, Start: t}, nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return Period{Freq: Monthly, Start: t}, nil
	}
	yearStr, sub, ok := strings.Cut(s, "-")
	if !ok || len(yearStr) != 4 || len(sub) < 2 {
		return Period{}, errors.Reason("unrecognized period format: '%s'", s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Period{}, errors.Annotate(err, "invalid year in period '%s'", s)
	}
	n, err := strconv.Atoi(sub[1:])
	if err != nil {
		return Period{}, errors.Annotate(err, "invalid sub-period in '%s'", s)
	}
	switch sub[0] {
	case 'Q':
		if n < 1 || n > 4 {
			return Period{}, errors.Reason("quarter %d out of range in '%s'", n, s)
		}
		return NewPeriod(Quarterly, year, time.Month(3*(n-1)+1), 1), nil
	case 'S', 'B':
		if n < 1 || n > 2 {
			return Period{}, errors.Reason("half-year %d out of range in '%s'", n, s)
		}
		return NewPeriod(HalfYearly, year, time.Month(6*(n-1)+1), 1), nil
	case 'M':
		if n < 1 || n > 12 {
			return Period{}, errors.Reason("month %d out of range in '%s'", n, s)
		}
		return NewPeriod(Monthly, year, time.Month(n), 1), nil
	case 'W':
		if n < 1 || n > 53 {
			return Period{}, errors.Reason("week %d out of range in '%s'", n, s)
		}
		return Period{Freq: Weekly, Start: isoWeekStart(year, n)}, nil
	}
	return Period{}, errors.Reason("unrecognized period format: '%s'", s)
}

// isoWeekStart returns the Monday of the ISO week. Week 1 always contains
// January 4th.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	return jan4.AddDate(0, 0, 7*(week-1)-offset)
}

// String formats the period the way the service does.
func (p Period) String() string {
	y := p.Start.Year()
	switch p.Freq {
	case Annual:
		return fmt.Sprintf("%04d", y)
	case HalfYearly:
		return fmt.Sprintf("%04d-S%d", y, (int(p.Start.Month())-1)/6+1)
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", y, (int(p.Start.Month())-1)/3+1)
	case Monthly:
		return p.Start.Format("2006-01")
	case Weekly:
		wy, w := p.Start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", wy, w)
	case Daily:
		return p.Start.Format("2006-01-02")
	}
	return p.raw
}

// IsZero checks whether the period is empty or unparsed.
func (p Period) IsZero() bool { return p.Start.IsZero() }

// Before orders periods by their start time.
func (p Period) Before(p2 Period) bool { return p.Start.Before(p2.Start) }

// MarshalJSON implements json.Marshaler.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
