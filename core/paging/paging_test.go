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

package paging

import "testing"

func TestPage(t *testing.T) {
	c := []string{"r0", "r1", "r2", "r3", "r4"}

	tests := []struct {
		name      string
		requested State
		want      []string
		resolved  State
		pages     int
		err       PageError
	}{
		{"first page", State{0, 2}, []string{"r0", "r1"}, State{0, 2}, 3, None},
		{"last partial page", State{2, 2}, []string{"r4"}, State{2, 2}, 3, None},
		{"index past the end clamps", State{9, 2}, []string{"r4"}, State{2, 2}, 3, IncorrectPageIndex},
		{"negative index clamps", State{-3, 2}, []string{"r0", "r1"}, State{0, 2}, 3, IncorrectPageIndex},
		{"show all", State{4, 0}, c, State{0, 5}, 1, None},
		{"negative page size shows all", State{0, -1}, c, State{0, 5}, 1, None},
		{"page larger than collection", State{0, 10}, c, State{0, 10}, 1, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, res := Page(c, tt.requested)
			if len(got) != len(tt.want) {
				t.Fatalf("Page = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Page = %v, want %v", got, tt.want)
				}
			}
			if res.State != tt.resolved {
				t.Errorf("resolved = %+v, want %+v", res.State, tt.resolved)
			}
			if res.TotalPages != tt.pages || res.TotalRecords != len(c) {
				t.Errorf("pages=%d records=%d, want %d and %d", res.TotalPages, res.TotalRecords, tt.pages, len(c))
			}
			if res.Err != tt.err {
				t.Errorf("Err = %v, want %v", res.Err, tt.err)
			}
		})
	}
}

func TestPageEmptyCollection(t *testing.T) {
	got, res := Page([]int{}, State{PageIndex: 3, RecordsPerPage: 10})
	if len(got) != 0 {
		t.Errorf("expected empty page, got %v", got)
	}
	if res.PageIndex != 0 || res.TotalPages != 0 {
		t.Errorf("resolved = %+v", res)
	}
}

func TestPageDoesNotMutateInput(t *testing.T) {
	c := []int{1, 2, 3, 4}
	got, _ := Page(c, State{PageIndex: 0, RecordsPerPage: 2})
	got = append(got, 99)
	if c[2] != 3 {
		t.Errorf("appending to a page overwrote the input: %v", c)
	}
	if len(got) != 3 {
		t.Errorf("unexpected page length %d", len(got))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ index, total, perPage, want int }{
		{0, 0, 10, 0},
		{5, 0, 10, 0},
		{1, 10, 10, 0},
		{1, 11, 10, 1},
		{-1, 11, 10, 0},
		{3, 11, 0, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.index, tt.total, tt.perPage); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.index, tt.total, tt.perPage, got, tt.want)
		}
	}
}
