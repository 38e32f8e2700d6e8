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

package aggregates

import (
	"math"
	"testing"
	"time"

	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/records"
)

func TestNumericState(t *testing.T) {
	s := NewNumericState()
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(records.NumberValue(v))
	}
	s.Add(records.NullValue())
	s.Add(records.StringValue("x"))
	s.Add(records.NumberValue(math.NaN()))

	tests := []struct {
		typ  Type
		want string
	}{
		{Count, "8"},
		{Sum, "40"},
		{Avg, "5"},
		{StdDev, "2"},
		{Min, "2"},
		{Max, "9"},
		{Ratio, "-"},
	}
	for _, tt := range tests {
		if got := s.Format(tt.typ); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
	if got := NewNumericState().Format(Sum); got != "-" {
		t.Errorf("empty Format(Sum) = %q, want -", got)
	}
}

func TestNumericStateCombine(t *testing.T) {
	a, b := NewNumericState(), NewNumericState()
	a.Add(records.NumberValue(1.5))
	b.Add(records.NumberValue(10))
	a.Combine(b)
	a.Combine(NewNumericState())
	a.Combine(&BoolState{Count: 3})

	if a.Count != 2 || a.Min != 1.5 || a.Max != 10 {
		t.Errorf("combined = %+v", a)
	}
	if got := a.Format(Avg); got != "5.75" {
		t.Errorf("Format(Avg) = %q, want 5.75", got)
	}
}

func TestBoolState(t *testing.T) {
	s := &BoolState{}
	for _, b := range []bool{true, true, false, true} {
		s.Add(records.BoolValue(b))
	}
	if s.Format(True) != "3" || s.Format(False) != "1" || s.Format(Ratio) != "75.0%" {
		t.Errorf("true=%s false=%s ratio=%s", s.Format(True), s.Format(False), s.Format(Ratio))
	}
}

func TestStringState(t *testing.T) {
	s := NewStringState()
	for _, v := range []string{"pear", "apple", "pear", "fig"} {
		s.Add(records.StringValue(v))
	}
	o := NewStringState()
	o.Add(records.StringValue("zucchini"))
	s.Combine(o)

	if s.Format(Unique) != "4" || s.Format(Min) != "apple" || s.Format(Max) != "zucchini" || s.Format(Count) != "5" {
		t.Errorf("unique=%s min=%s max=%s count=%s", s.Format(Unique), s.Format(Min), s.Format(Max), s.Format(Count))
	}
}

func TestTimeState(t *testing.T) {
	s := NewTimeState()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Add(records.TimeValue(start))
	s.Add(records.TimeValue(start.AddDate(0, 0, 3)))

	if got := s.Format(Min); got != "2024-01-01" {
		t.Errorf("Format(Min) = %q", got)
	}
	if got := s.Format(Max); got != "2024-01-04" {
		t.Errorf("Format(Max) = %q", got)
	}
	if got := s.Format(Span); got != "3.0d" {
		t.Errorf("Format(Span) = %q", got)
	}
	if got := s.Format(Avg); got != "2024-01-02 12:00" {
		t.Errorf("Format(Avg) = %q", got)
	}
}

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs("amount:sum:avg,express:ratio")
	if err != nil {
		t.Fatalf("ParseSpecs: %v", err)
	}
	if len(specs) != 2 || specs[0].FieldName != "amount" || len(specs[0].Types) != 2 || specs[1].Types[0] != Ratio {
		t.Errorf("specs = %+v", specs)
	}
	if got := FormatSpecs(specs); got != "amount:sum:avg,express:ratio" {
		t.Errorf("FormatSpecs = %q", got)
	}

	for _, bad := range []string{"amount", ":sum", "amount:median"} {
		if _, err := ParseSpecs(bad); err == nil {
			t.Errorf("ParseSpecs(%q) succeeded, want error", bad)
		}
	}
	if specs, err := ParseSpecs(""); err != nil || specs != nil {
		t.Errorf("ParseSpecs(\"\") = %v, %v", specs, err)
	}
}

func TestForTree(t *testing.T) {
	c := records.Collection{
		records.NewRecord(map[string]any{"status": "A", "region": "N", "amount": 10}),
		records.NewRecord(map[string]any{"status": "A", "region": "N", "amount": 20}),
		records.NewRecord(map[string]any{"status": "A", "region": "S", "amount": 5}),
		records.NewRecord(map[string]any{"status": "B", "region": "S"}),
	}
	view := grouping.Group(c, []grouping.Expression{{FieldName: "status"}, {FieldName: "region"}}, nil, true)
	specs := []Spec{{FieldName: "amount", Types: []Type{Sum, Count}}}

	summaries := ForTree(&view.Tree, specs)
	if len(summaries) != len(view.Tree.Nodes) {
		t.Fatalf("got %d summaries for %d nodes", len(summaries), len(view.Tree.Nodes))
	}

	tests := []struct {
		path grouping.KeyPath
		sum  string
	}{
		{grouping.KeyPath{{FieldName: "status", Value: records.StringValue("A")}}, "35"},
		{grouping.KeyPath{{FieldName: "status", Value: records.StringValue("A")}, {FieldName: "region", Value: records.StringValue("N")}}, "30"},
		{grouping.KeyPath{{FieldName: "status", Value: records.StringValue("B")}}, "-"},
	}
	for _, tt := range tests {
		idx := view.Tree.Find(tt.path)
		if idx < 0 {
			t.Fatalf("group %s not found", tt.path)
		}
		f := summaries[idx].Format(specs)
		if len(f) != 2 || f[0].Value != tt.sum {
			t.Errorf("%s: %v, want sum %s", tt.path, f, tt.sum)
		}
	}

	total := ForCollection(c, specs).Format(specs)
	if total[0].Value != "35" || total[1].Value != "3" {
		t.Errorf("ForCollection = %v", total)
	}
	if got := total[0].String(); got != "Σ amount 35" {
		t.Errorf("String() = %q", got)
	}
	if ForTree(&view.Tree, nil) != nil {
		t.Error("ForTree without specs should be nil")
	}
}
