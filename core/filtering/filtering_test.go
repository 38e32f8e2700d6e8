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

package filtering

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/gridpipe/core/records"
)

func cond(t *testing.T, kind records.Kind, name string) Condition {
	t.Helper()
	c, ok := Lookup(kind, name)
	if !ok {
		t.Fatalf("condition %s/%s not found", kind, name)
	}
	return c
}

func values(c records.Collection, field string) []string {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = r.Lookup(field).String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sampleCollection() records.Collection {
	return records.Collection{
		records.NewRecord(map[string]any{"id": "1", "name": "Alice", "age": 31, "active": true}),
		records.NewRecord(map[string]any{"id": "2", "name": "bob", "age": 17, "active": false}),
		records.NewRecord(map[string]any{"id": "3", "name": "Carol", "active": true}),
		records.NewRecord(map[string]any{"id": "4", "name": "", "age": 45, "active": nil}),
		records.NewRecord(map[string]any{"id": "5", "age": 60}),
	}
}

func TestFilterEmptyExpressionsIsIdentity(t *testing.T) {
	c := sampleCollection()
	for _, logic := range []Logic{And, Or, Logic(42)} {
		got := Filter(c, nil, logic)
		if len(got) != len(c) || &got[0] != &c[0] {
			t.Errorf("Filter with logic %v did not pass the collection through", logic)
		}
	}
}

func TestFilterAndOr(t *testing.T) {
	c := sampleCollection()
	adult := Expression{FieldName: "age", Condition: cond(t, records.Number, "greaterThanOrEqualTo"), SearchValue: records.NumberValue(18)}
	startsWithC := Expression{FieldName: "name", Condition: cond(t, records.String, "startsWith"), SearchValue: records.StringValue("c"), IgnoreCase: true}

	and := Filter(c, []Expression{adult, startsWithC}, And)
	if len(and) != 0 {
		t.Errorf("And = %v, want none", values(and, "id"))
	}

	or := Filter(c, []Expression{adult, startsWithC}, Or)
	if want := []string{"1", "3", "4", "5"}; !equalStrings(values(or, "id"), want) {
		t.Errorf("Or = %v, want %v", values(or, "id"), want)
	}
}

func TestFilterOrIsSupersetOfAnd(t *testing.T) {
	c := sampleCollection()
	e1 := Expression{FieldName: "active", Condition: cond(t, records.Bool, "true")}
	e2 := Expression{FieldName: "age", Condition: cond(t, records.Number, "lessThan"), SearchValue: records.NumberValue(40)}

	and := Filter(c, []Expression{e1, e2}, And)
	or := Filter(c, []Expression{e1, e2}, Or)
	inOr := map[string]bool{}
	for _, r := range or {
		inOr[r.Lookup("id").Str()] = true
	}
	for _, r := range and {
		if !inOr[r.Lookup("id").Str()] {
			t.Errorf("record %s passes And but not Or", r.Lookup("id"))
		}
	}
}

func TestFilterUnknownLogicDefaultsToAnd(t *testing.T) {
	c := sampleCollection()
	exprs := []Expression{
		{FieldName: "active", Condition: cond(t, records.Bool, "true")},
		{FieldName: "name", Condition: cond(t, records.String, "contains"), SearchValue: records.StringValue("ali"), IgnoreCase: true},
	}
	got := Filter(c, exprs, Logic(7))
	if want := []string{"1"}; !equalStrings(values(got, "id"), want) {
		t.Errorf("Filter = %v, want %v", values(got, "id"), want)
	}
	if ParseLogic("OR") != Or || ParseLogic("xor") != And || ParseLogic("") != And {
		t.Error("ParseLogic did not default to And")
	}
}

func TestFilterMissingFields(t *testing.T) {
	c := sampleCollection()
	tests := []struct {
		name string
		expr Expression
		want []string
	}{
		{"missing age fails comparison", Expression{FieldName: "age", Condition: cond(t, records.Number, "doesNotEqual"), SearchValue: records.NumberValue(0)}, []string{"1", "2", "4", "5"}},
		{"missing age matches null", Expression{FieldName: "age", Condition: cond(t, records.Number, "null")}, []string{"3"}},
		{"empty name", Expression{FieldName: "name", Condition: cond(t, records.String, "empty")}, []string{"4", "5"}},
		{"not empty name", Expression{FieldName: "name", Condition: cond(t, records.String, "notEmpty")}, []string{"1", "2", "3"}},
		{"null active", Expression{FieldName: "active", Condition: cond(t, records.Bool, "null")}, []string{"4", "5"}},
		{"all active skips missing", Expression{FieldName: "active", Condition: cond(t, records.Bool, "all")}, []string{"1", "2", "3", "4"}},
		{"missing name fails doesNotContain", Expression{FieldName: "name", Condition: cond(t, records.String, "doesNotContain"), SearchValue: records.StringValue("zzz")}, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(c, []Expression{tt.expr}, And)
			if !equalStrings(values(got, "id"), tt.want) {
				t.Errorf("Filter = %v, want %v", values(got, "id"), tt.want)
			}
		})
	}
}

func TestStringConditions(t *testing.T) {
	v := records.StringValue("Hello World")
	tests := []struct {
		name       string
		search     string
		ignoreCase bool
		want       bool
	}{
		{"contains", "World", false, true},
		{"contains", "world", false, false},
		{"contains", "world", true, true},
		{"doesNotContain", "xyz", false, true},
		{"startsWith", "hello", true, true},
		{"endsWith", "World", false, true},
		{"equals", "hello world", true, true},
		{"equals", "hello world", false, false},
		{"doesNotEqual", "Hello World", false, false},
	}
	for _, tt := range tests {
		c := cond(t, records.String, tt.name)
		if got := c.Func(v, records.StringValue(tt.search), tt.ignoreCase); got != tt.want {
			t.Errorf("%s(%q, ignoreCase=%v) = %v, want %v", tt.name, tt.search, tt.ignoreCase, got, tt.want)
		}
	}
}

func TestNumberConditions(t *testing.T) {
	v := records.NumberValue(10)
	tests := []struct {
		name   string
		search float64
		want   bool
	}{
		{"equals", 10, true},
		{"doesNotEqual", 10, false},
		{"greaterThan", 9, true},
		{"greaterThan", 10, false},
		{"lessThan", 11, true},
		{"greaterThanOrEqualTo", 10, true},
		{"lessThanOrEqualTo", 9, false},
	}
	for _, tt := range tests {
		c := cond(t, records.Number, tt.name)
		if got := c.Func(v, records.NumberValue(tt.search), false); got != tt.want {
			t.Errorf("%s(%v) = %v, want %v", tt.name, tt.search, got, tt.want)
		}
	}
	if cond(t, records.Number, "greaterThan").Func(records.StringValue("11"), records.NumberValue(1), false) {
		t.Error("number condition matched a string value")
	}
}

func TestDateConditions(t *testing.T) {
	defer func(prev func() time.Time) { Now = prev }(Now)
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	Now = func() time.Time { return now }

	day := func(y int, m time.Month, d int) records.Value {
		return records.TimeValue(time.Date(y, m, d, 9, 30, 0, 0, time.UTC))
	}
	tests := []struct {
		name   string
		value  records.Value
		search records.Value
		want   bool
	}{
		{"equals", day(2024, 3, 1), day(2024, 3, 1), true},
		{"doesNotEqual", day(2024, 3, 1), day(2024, 3, 2), true},
		{"before", day(2024, 3, 1), day(2024, 3, 2), true},
		{"after", day(2024, 3, 1), day(2024, 3, 2), false},
		{"today", day(2024, 3, 31), records.NullValue(), true},
		{"yesterday", day(2024, 3, 30), records.NullValue(), true},
		{"thisMonth", day(2024, 3, 2), records.NullValue(), true},
		{"lastMonth", day(2024, 2, 29), records.NullValue(), true},
		{"nextMonth", day(2024, 4, 30), records.NullValue(), true},
		{"thisYear", day(2024, 12, 1), records.NullValue(), true},
		{"lastYear", day(2023, 6, 1), records.NullValue(), true},
		{"nextYear", day(2026, 6, 1), records.NullValue(), false},
		{"before", records.StringValue("2024-01-01"), day(2024, 3, 2), false},
	}
	for _, tt := range tests {
		c := cond(t, records.Time, tt.name)
		if got := c.Func(tt.value, tt.search, false); got != tt.want {
			t.Errorf("%s(%v, %v) = %v, want %v", tt.name, tt.value, tt.search, got, tt.want)
		}
	}
}

func TestFilterPreservesOrderAndInput(t *testing.T) {
	c := sampleCollection()
	before := values(c, "id")
	got := Filter(c, []Expression{{FieldName: "active", Condition: cond(t, records.Bool, "notNull")}}, And)
	if want := []string{"1", "2", "3"}; !equalStrings(values(got, "id"), want) {
		t.Errorf("Filter = %v, want %v", values(got, "id"), want)
	}
	if !equalStrings(before, values(c, "id")) {
		t.Error("Filter modified its input")
	}
}

func TestFilterParallelMatchesFilter(t *testing.T) {
	c := make(records.Collection, 3*MinParallelRecords+17)
	for i := range c {
		c[i] = records.NewRecord(map[string]any{"id": fmt.Sprint(i), "n": i % 13})
	}
	exprs := []Expression{
		{FieldName: "n", Condition: cond(t, records.Number, "greaterThan"), SearchValue: records.NumberValue(10)},
		{FieldName: "n", Condition: cond(t, records.Number, "equals"), SearchValue: records.NumberValue(3)},
	}
	want := Filter(c, exprs, Or)
	got := FilterParallel(c, exprs, Or, 4)
	if !equalStrings(values(got, "id"), values(want, "id")) {
		t.Fatalf("FilterParallel returned %d records, Filter %d", len(got), len(want))
	}
}

func TestNames(t *testing.T) {
	names := Names(records.Bool)
	want := []string{"all", "empty", "false", "notEmpty", "notNull", "null", "true"}
	if !equalStrings(names, want) {
		t.Errorf("Names(Bool) = %v, want %v", names, want)
	}
}

func BenchmarkFilter(b *testing.B) {
	c := make(records.Collection, 100000)
	for i := range c {
		c[i] = records.NewRecord(map[string]any{"n": i % 97, "s": fmt.Sprintf("item-%d", i)})
	}
	gt, _ := Lookup(records.Number, "greaterThan")
	contains, _ := Lookup(records.String, "contains")
	exprs := []Expression{
		{FieldName: "n", Condition: gt, SearchValue: records.NumberValue(50)},
		{FieldName: "s", Condition: contains, SearchValue: records.StringValue("9")},
	}
	b.Run("serial", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Filter(c, exprs, And)
		}
	})
	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			FilterParallel(c, exprs, And, 4)
		}
	})
}
