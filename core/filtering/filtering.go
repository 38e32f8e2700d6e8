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

// Package filtering selects the records of a collection that satisfy a list
// of per-field conditions combined with a boolean operator.
package filtering

import (
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/google/gridpipe/core/records"
)

// Logic combines the results of the expressions of one filter.
type Logic int

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "or"
	}
	return "and"
}

// ParseLogic returns Or for "or" (any case) and And for everything else.
func ParseLogic(s string) Logic {
	if strings.EqualFold(strings.TrimSpace(s), "or") {
		return Or
	}
	return And
}

// Expression tests one field of a record against a search value.
type Expression struct {
	FieldName   string
	Condition   Condition
	SearchValue records.Value
	IgnoreCase  bool
}

// Match evaluates the expression against r. A missing field only matches
// conditions that explicitly accept it (empty, null).
func (e Expression) Match(r records.Record) bool {
	v, ok := r.Get(e.FieldName)
	if !ok {
		return e.Condition.MatchesMissing
	}
	if e.Condition.Func == nil {
		return false
	}
	return e.Condition.Func(v, e.SearchValue, e.IgnoreCase)
}

// Matches reports whether r passes exprs under logic.
// Any logic value other than Or behaves as And.
func Matches(r records.Record, exprs []Expression, logic Logic) bool {
	if logic == Or {
		for _, e := range exprs {
			if e.Match(r) {
				return true
			}
		}
		return false
	}
	for _, e := range exprs {
		if !e.Match(r) {
			return false
		}
	}
	return true
}

// Filter returns the records of c that pass exprs, in input order.
// An empty expression list returns c unchanged regardless of logic.
func Filter(c records.Collection, exprs []Expression, logic Logic) records.Collection {
	if len(exprs) == 0 {
		return c
	}
	out := make(records.Collection, 0, len(c))
	for _, r := range c {
		if Matches(r, exprs, logic) {
			out = append(out, r)
		}
	}
	return out
}

// MinParallelRecords is the collection size below which FilterParallel
// falls back to Filter.
const MinParallelRecords = 4096

// FilterParallel returns the same result as Filter, evaluating the
// expressions over contiguous chunks of c on up to workers goroutines.
// Each goroutine writes only its own range of the match mask, and the
// output is assembled in input order afterwards.
func FilterParallel(c records.Collection, exprs []Expression, logic Logic, workers int) records.Collection {
	if len(exprs) == 0 {
		return c
	}
	if workers <= 1 || len(c) < MinParallelRecords {
		return Filter(c, exprs, logic)
	}

	mask := make([]bool, len(c))
	chunk := (len(c) + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(c); start += chunk {
		end := min(start+chunk, len(c))
		p.Go(func() {
			for i := start; i < end; i++ {
				mask[i] = Matches(c[i], exprs, logic)
			}
		})
	}
	p.Wait()

	count := 0
	for _, m := range mask {
		if m {
			count++
		}
	}
	out := make(records.Collection, 0, count)
	for i, m := range mask {
		if m {
			out = append(out, c[i])
		}
	}
	return out
}
