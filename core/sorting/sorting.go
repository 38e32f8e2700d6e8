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

// Package sorting orders record collections by a list of sort keys.
package sorting

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/gridpipe/core/records"
)

// Direction is the sort direction of a single key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// Expression is one sort key. A list of expressions is evaluated left to
// right, later keys only breaking ties of earlier ones.
type Expression struct {
	FieldName  string
	Direction  Direction
	IgnoreCase bool
}

// Comparator returns the composite comparison function for exprs.
// Null and absent values sort after any non-null value under either
// direction; Direction only reverses the key it belongs to.
func Comparator(exprs []Expression) func(a, b records.Record) int {
	return func(a, b records.Record) int {
		for _, e := range exprs {
			if cmp := compareKey(a.Lookup(e.FieldName), b.Lookup(e.FieldName), e); cmp != 0 {
				return cmp
			}
		}
		return 0
	}
}

func compareKey(va, vb records.Value, e Expression) int {
	aNull, bNull := va.IsNull(), vb.IsNull()
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return 1
	case bNull:
		return -1
	}
	cmp := records.Compare(va, vb, e.IgnoreCase)
	if e.Direction == Descending {
		return -cmp
	}
	return cmp
}

// Sort returns a new collection ordered by exprs. The sort is stable:
// records that tie on every key keep their input order. The input is never
// modified and an empty expression list returns it unchanged.
func Sort(c records.Collection, exprs []Expression) records.Collection {
	if len(exprs) == 0 {
		return c
	}
	out := c.Clone()
	slices.SortStableFunc(out, Comparator(exprs))
	return out
}
