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

// Package paging slices a collection into a single page.
package paging

// State is a page request or the page actually applied.
type State struct {
	PageIndex      int
	RecordsPerPage int
}

// PageError records why the applied state differs from the request.
type PageError int

const (
	None PageError = iota
	// IncorrectPageIndex means the requested index was outside the valid range and was clamped.
	IncorrectPageIndex
)

func (e PageError) String() string {
	if e == IncorrectPageIndex {
		return "incorrect page index"
	}
	return "none"
}

// Result describes the page that was applied.
type Result struct {
	State
	TotalPages   int
	TotalRecords int
	Err          PageError
}

// TotalPages returns ceil(total/recordsPerPage), 1 for show-all.
func TotalPages(total, recordsPerPage int) int {
	if recordsPerPage <= 0 {
		return 1
	}
	return (total + recordsPerPage - 1) / recordsPerPage
}

// Clamp resolves a requested page index into [0, max(0, pages-1)].
func Clamp(pageIndex, total, recordsPerPage int) int {
	last := max(0, TotalPages(total, recordsPerPage)-1)
	return min(max(pageIndex, 0), last)
}

// Page returns one page of c and the state that was applied. A
// RecordsPerPage of zero or less shows every item, and the resolved page
// size is then len(c). An out-of-range index is clamped. The returned
// slice shares c's backing array but cannot grow into it.
func Page[T any](c []T, requested State) ([]T, Result) {
	total := len(c)
	res := Result{TotalRecords: total}

	if requested.RecordsPerPage <= 0 {
		res.State = State{PageIndex: 0, RecordsPerPage: total}
		res.TotalPages = 1
		return c, res
	}

	res.TotalPages = TotalPages(total, requested.RecordsPerPage)
	index := Clamp(requested.PageIndex, total, requested.RecordsPerPage)
	if index != requested.PageIndex {
		res.Err = IncorrectPageIndex
	}
	res.State = State{PageIndex: index, RecordsPerPage: requested.RecordsPerPage}

	start := min(index*requested.RecordsPerPage, total)
	end := min(start+requested.RecordsPerPage, total)
	return c[start:end:end], res
}
