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

package sorting

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/gridpipe/core/records"
)

func rec(fields map[string]any) records.Record {
	return records.NewRecord(fields)
}

func ids(c records.Collection) []string {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = r.Lookup("id").String()
	}
	return out
}

func sameOrder(a, b []string) bool {
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

func TestSortEmptyExpressionsIsIdentity(t *testing.T) {
	c := records.Collection{rec(map[string]any{"id": "b"}), rec(map[string]any{"id": "a"})}
	got := Sort(c, nil)
	if &got[0] != &c[0] {
		t.Error("expected the input collection to be returned unchanged")
	}
}

func TestSortMultiKey(t *testing.T) {
	c := records.Collection{
		rec(map[string]any{"id": "1", "region": "North", "amount": 10}),
		rec(map[string]any{"id": "2", "region": "East", "amount": 30}),
		rec(map[string]any{"id": "3", "region": "North", "amount": 20}),
		rec(map[string]any{"id": "4", "region": "East", "amount": 5}),
	}
	got := Sort(c, []Expression{
		{FieldName: "region"},
		{FieldName: "amount", Direction: Descending},
	})
	want := []string{"2", "4", "3", "1"}
	if !sameOrder(ids(got), want) {
		t.Errorf("Sort = %v, want %v", ids(got), want)
	}
}

func TestSortDirectionOnlyAffectsItsKey(t *testing.T) {
	c := records.Collection{
		rec(map[string]any{"id": "1", "a": 1, "b": 2}),
		rec(map[string]any{"id": "2", "a": 2, "b": 1}),
		rec(map[string]any{"id": "3", "a": 1, "b": 1}),
	}
	got := Sort(c, []Expression{
		{FieldName: "a", Direction: Descending},
		{FieldName: "b", Direction: Ascending},
	})
	want := []string{"2", "3", "1"}
	if !sameOrder(ids(got), want) {
		t.Errorf("Sort = %v, want %v", ids(got), want)
	}
}

func TestSortNullsLastInBothDirections(t *testing.T) {
	c := records.Collection{
		rec(map[string]any{"id": "null", "v": nil}),
		rec(map[string]any{"id": "absent"}),
		rec(map[string]any{"id": "one", "v": 1}),
		rec(map[string]any{"id": "two", "v": 2}),
	}

	asc := Sort(c, []Expression{{FieldName: "v"}})
	if want := []string{"one", "two", "null", "absent"}; !sameOrder(ids(asc), want) {
		t.Errorf("ascending = %v, want %v", ids(asc), want)
	}

	desc := Sort(c, []Expression{{FieldName: "v", Direction: Descending}})
	if want := []string{"two", "one", "null", "absent"}; !sameOrder(ids(desc), want) {
		t.Errorf("descending = %v, want %v", ids(desc), want)
	}
}

func TestSortIgnoreCase(t *testing.T) {
	c := records.Collection{
		rec(map[string]any{"id": "1", "name": "bob"}),
		rec(map[string]any{"id": "2", "name": "Alice"}),
		rec(map[string]any{"id": "3", "name": "alice"}),
	}

	sensitive := Sort(c, []Expression{{FieldName: "name"}})
	if want := []string{"2", "3", "1"}; !sameOrder(ids(sensitive), want) {
		t.Errorf("case-sensitive = %v, want %v", ids(sensitive), want)
	}

	// Alice and alice tie, so stability keeps 2 before 3
	insensitive := Sort(c, []Expression{{FieldName: "name", IgnoreCase: true}})
	if want := []string{"2", "3", "1"}; !sameOrder(ids(insensitive), want) {
		t.Errorf("case-insensitive = %v, want %v", ids(insensitive), want)
	}

	reversed := records.Collection{c[2], c[1], c[0]}
	insensitive = Sort(reversed, []Expression{{FieldName: "name", IgnoreCase: true}})
	if want := []string{"3", "2", "1"}; !sameOrder(ids(insensitive), want) {
		t.Errorf("case-insensitive reversed = %v, want %v", ids(insensitive), want)
	}
}

func TestSortStableAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := make(records.Collection, 200)
	for i := range c {
		c[i] = rec(map[string]any{"id": fmt.Sprint(i), "k": rng.Intn(5)})
	}
	exprs := []Expression{{FieldName: "k"}}

	once := Sort(c, exprs)
	twice := Sort(once, exprs)
	if !sameOrder(ids(once), ids(twice)) {
		t.Fatal("sort is not idempotent")
	}

	// Within every key the original index order must be preserved
	lastIndex := map[float64]int{}
	position := map[string]int{}
	for i, r := range c {
		position[r.Lookup("id").String()] = i
	}
	for _, r := range once {
		k := r.Lookup("k").Num()
		p := position[r.Lookup("id").String()]
		if prev, ok := lastIndex[k]; ok && prev > p {
			t.Fatalf("records with key %v out of input order", k)
		}
		lastIndex[k] = p
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	c := records.Collection{
		rec(map[string]any{"id": "3"}),
		rec(map[string]any{"id": "1"}),
		rec(map[string]any{"id": "2"}),
	}
	before := ids(c)
	Sort(c, []Expression{{FieldName: "id"}})
	if !sameOrder(before, ids(c)) {
		t.Errorf("input changed from %v to %v", before, ids(c))
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Ascending, "ASC": Ascending, "descending": Descending, " desc ": Descending} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected an error for an unknown direction")
	}
}

func BenchmarkSort(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	c := make(records.Collection, 100000)
	for i := range c {
		c[i] = rec(map[string]any{"region": fmt.Sprintf("r%d", rng.Intn(50)), "amount": rng.Float64()})
	}
	exprs := []Expression{{FieldName: "region"}, {FieldName: "amount", Direction: Descending}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sort(c, exprs)
	}
}
