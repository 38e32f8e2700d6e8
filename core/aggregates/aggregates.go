/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package aggregates provides aggregate state types for hierarchical aggregation.
// These types store intermediate state that can be combined up a grouping hierarchy,
// allowing aggregates to be computed at leaf level and merged up to parent groups.
package aggregates

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/gridpipe/core/records"
)

// Type selects one aggregate of a field.
type Type int

const (
	Count Type = iota
	Sum
	Avg
	StdDev
	Min
	Max
	True
	False
	Ratio
	Unique
	Span
)

var typeNames = map[Type]string{
	Count:  "count",
	Sum:    "sum",
	Avg:    "avg",
	StdDev: "stddev",
	Min:    "min",
	Max:    "max",
	True:   "true",
	False:  "false",
	Ratio:  "ratio",
	Unique: "unique",
	Span:   "span",
}

var typeSymbols = map[Type]string{
	Count:  "#",
	Sum:    "Σ",
	Avg:    "μ",
	StdDev: "σ",
	Min:    "↓",
	Max:    "↑",
	True:   "✓",
	False:  "✗",
	Ratio:  "%",
	Unique: "≠",
	Span:   "↔",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Symbol is the short marker shown next to a formatted aggregate.
func (t Type) Symbol() string {
	return typeSymbols[t]
}

// ParseType accepts the names returned by Type.String.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return Count, fmt.Errorf("unknown aggregate %q", s)
}

// State is the interface for all aggregate state types.
// It provides methods for accumulating values, combining states and formatting results.
type State interface {
	// Add accumulates one value. Values of another kind are ignored.
	Add(v records.Value)
	// Combine merges another state into this one (for hierarchical aggregation).
	Combine(other State)
	// Format returns a formatted string for the given aggregate type.
	Format(t Type) string
	// Kind returns the value kind this state is for.
	Kind() records.Kind
}

// NumericState stores intermediate state for numeric field aggregates.
// It can derive sum, avg, stddev, min, max, and count.
type NumericState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	SumSq float64 // Sum of squared values (for stddev)
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericState creates a new empty numeric aggregate state.
func NewNumericState() *NumericState {
	return &NumericState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

func (s *NumericState) Add(v records.Value) {
	if v.Kind() != records.Number || math.IsNaN(v.Num()) {
		return
	}
	value := v.Num()
	s.Count++
	s.Sum += value
	s.SumSq += value * value
	s.Min = min(s.Min, value)
	s.Max = max(s.Max, value)
}

func (s *NumericState) Combine(other State) {
	o, ok := other.(*NumericState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

// Avg returns the average (mean) of the values.
func (s *NumericState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *NumericState) StdDev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Avg()
	// Variance = E[X²] - (E[X])²
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		// floating point noise
		variance = 0
	}
	return math.Sqrt(variance)
}

func (s *NumericState) Format(t Type) string {
	if s.Count == 0 {
		return "-"
	}
	switch t {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Sum:
		return formatNumber(s.Sum)
	case Avg:
		return formatNumber(s.Avg())
	case StdDev:
		return formatNumber(s.StdDev())
	case Min:
		return formatNumber(s.Min)
	case Max:
		return formatNumber(s.Max)
	default:
		return "-"
	}
}

func (s *NumericState) Kind() records.Kind { return records.Number }

// BoolState stores intermediate state for boolean field aggregates.
// It can derive count, true count, false count, and ratio.
type BoolState struct {
	Count      int64
	TrueCount  int64
	FalseCount int64
}

func (s *BoolState) Add(v records.Value) {
	if v.Kind() != records.Bool {
		return
	}
	s.Count++
	if v.Bool() {
		s.TrueCount++
	} else {
		s.FalseCount++
	}
}

func (s *BoolState) Combine(other State) {
	o, ok := other.(*BoolState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.TrueCount += o.TrueCount
	s.FalseCount += o.FalseCount
}

// Ratio returns the ratio of true values to total (0.0 to 1.0).
func (s *BoolState) Ratio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TrueCount) / float64(s.Count)
}

func (s *BoolState) Format(t Type) string {
	if s.Count == 0 {
		return "-"
	}
	switch t {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case True:
		return fmt.Sprintf("%d", s.TrueCount)
	case False:
		return fmt.Sprintf("%d", s.FalseCount)
	case Ratio:
		return fmt.Sprintf("%.1f%%", s.Ratio()*100)
	default:
		return "-"
	}
}

func (s *BoolState) Kind() records.Kind { return records.Bool }

// StringState stores intermediate state for string field aggregates.
// It can derive count, unique count, min (lexically smallest), and max (lexically largest).
type StringState struct {
	Count     int64
	UniqueSet map[string]struct{}
	Min       string
	Max       string
}

// NewStringState creates a new empty string aggregate state.
func NewStringState() *StringState {
	return &StringState{UniqueSet: make(map[string]struct{})}
}

func (s *StringState) Add(v records.Value) {
	if v.Kind() != records.String {
		return
	}
	value := v.Str()
	if s.Count == 0 {
		s.Min, s.Max = value, value
	} else {
		s.Min = min(s.Min, value)
		s.Max = max(s.Max, value)
	}
	s.Count++
	s.UniqueSet[value] = struct{}{}
}

func (s *StringState) Combine(other State) {
	o, ok := other.(*StringState)
	if !ok || o.Count == 0 {
		return
	}
	if s.Count == 0 {
		s.Min, s.Max = o.Min, o.Max
	} else {
		s.Min = min(s.Min, o.Min)
		s.Max = max(s.Max, o.Max)
	}
	s.Count += o.Count
	for k := range o.UniqueSet {
		s.UniqueSet[k] = struct{}{}
	}
}

// UniqueCount returns the number of unique values.
func (s *StringState) UniqueCount() int {
	return len(s.UniqueSet)
}

func (s *StringState) Format(t Type) string {
	if s.Count == 0 {
		return "-"
	}
	switch t {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Unique:
		return fmt.Sprintf("%d", s.UniqueCount())
	case Min:
		return s.Min
	case Max:
		return s.Max
	default:
		return "-"
	}
}

func (s *StringState) Kind() records.Kind { return records.String }

// TimeState stores intermediate state for date field aggregates.
// Values are stored as nanoseconds since Unix epoch for consistent math.
// It can derive count, min, max, avg, stddev, and span.
type TimeState struct {
	Count int64
	Sum   float64 // Sum of epoch nanoseconds (as float64 for range)
	SumSq float64
	Min   int64
	Max   int64
}

// NewTimeState creates a new empty date aggregate state.
func NewTimeState() *TimeState {
	return &TimeState{
		Min: math.MaxInt64,
		Max: math.MinInt64,
	}
}

func (s *TimeState) Add(v records.Value) {
	if v.Kind() != records.Time {
		return
	}
	nanos := v.Time().UnixNano()
	s.Count++
	s.Sum += float64(nanos)
	s.SumSq += float64(nanos) * float64(nanos)
	s.Min = min(s.Min, nanos)
	s.Max = max(s.Max, nanos)
}

func (s *TimeState) Combine(other State) {
	o, ok := other.(*TimeState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

// Avg returns the average time.
func (s *TimeState) Avg() time.Time {
	if s.Count == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(s.Sum/float64(s.Count))).UTC()
}

// StdDev returns the standard deviation as a duration.
func (s *TimeState) StdDev() time.Duration {
	if s.Count == 0 {
		return 0
	}
	mean := s.Sum / float64(s.Count)
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		variance = 0
	}
	return time.Duration(math.Sqrt(variance))
}

// Span returns the time span (max - min).
func (s *TimeState) Span() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return time.Duration(s.Max - s.Min)
}

func (s *TimeState) Format(t Type) string {
	if s.Count == 0 {
		return "-"
	}
	switch t {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Min:
		return formatTime(time.Unix(0, s.Min).UTC())
	case Max:
		return formatTime(time.Unix(0, s.Max).UTC())
	case Avg:
		return formatTime(s.Avg())
	case StdDev:
		return formatDuration(s.StdDev())
	case Span:
		return formatDuration(s.Span())
	default:
		return "-"
	}
}

func (s *TimeState) Kind() records.Kind { return records.Time }

// NewState creates a new aggregate state for values of kind. Null kinds
// get a string state.
func NewState(kind records.Kind) State {
	switch kind {
	case records.Number:
		return NewNumericState()
	case records.Bool:
		return &BoolState{}
	case records.Time:
		return NewTimeState()
	default:
		return NewStringState()
	}
}

// formatNumber formats a float64 for display with at most two decimals.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	formatted := fmt.Sprintf("%.2f", v)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimSuffix(formatted, ".")
}

// formatTime formats a time for display, dropping a midnight clock.
func formatTime(t time.Time) string {
	if h, m, _ := t.Clock(); h == 0 && m == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02 15:04")
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	hours := d.Hours()
	switch {
	case hours >= 24*365:
		return fmt.Sprintf("%.1fy", hours/(24*365))
	case hours >= 24*30:
		return fmt.Sprintf("%.1fmo", hours/(24*30))
	case hours >= 24:
		return fmt.Sprintf("%.1fd", hours/24)
	case hours >= 1:
		return fmt.Sprintf("%.1fh", hours)
	case d.Minutes() >= 1:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
