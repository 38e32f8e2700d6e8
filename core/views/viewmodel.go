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

package views

import (
	"github.com/google/safehtml"

	"github.com/google/gridpipe/core/aggregates"
	"github.com/google/gridpipe/core/grouping"
	"github.com/google/gridpipe/core/labels"
	"github.com/google/gridpipe/core/paging"
	"github.com/google/gridpipe/core/pipeline"
	"github.com/google/gridpipe/core/query"
	"github.com/google/gridpipe/core/records"
	"github.com/google/gridpipe/core/sorting"
)

// GridViewModel contains the rows of a pipeline run formatted for display
type GridViewModel struct {
	Title      string
	Headers    []string     // Column display names
	Columns    []string     // Field names (for data access)
	Rows       []RowModel   // Group headers and records of the current page
	AllColumns []ColumnInfo // All available fields with metadata
	Filters    []FilterChip // Active filters
	Logic      string       // How the filters combine
	CurrentURL safehtml.URL // Current URL for building toggle links

	// Pagination info
	Paged          bool // False when paging is disabled for the grid
	PageIndex      int
	RecordsPerPage int
	TotalPages     int
	TotalRows      int // Rows on all pages, group headers included
	PageAdjusted   bool
	PrevURL        safehtml.URL
	NextURL        safehtml.URL
	HasPrev        bool
	HasNext        bool
}

// ColumnInfo contains information about a field for UI display
type ColumnInfo struct {
	Name            string
	DisplayName     string
	IsVisible       bool
	IsGrouped       bool
	Sort            string       // "asc", "desc" or "" when not sorted
	ToggleColumnURL safehtml.URL // URL to toggle visibility
	ToggleGroupURL  safehtml.URL // URL to group or ungroup by the field
	SortURL         safehtml.URL // URL to cycle the sort of the field
}

// FilterChip describes one active filter
type FilterChip struct {
	Field     string
	Label     string // e.g. "Amount greater Than 100"
	RemoveURL safehtml.URL
}

// RowModel is either a group header or a record
type RowModel struct {
	IsHeader bool

	// Header fields
	Level      int
	Field      string
	Label      string // e.g. "status: Active"
	Count      int
	Expanded   bool
	ToggleURL  safehtml.URL
	Aggregates []aggregates.Formatted

	// Record fields, in Columns order
	Cells  []string
	Values []records.Value
}

// BuildViewModel formats the result of a pipeline run. fields lists every
// field of the data set; the visible columns come from q, or are all
// fields when q names none.
func BuildViewModel(title string, fields []string, res pipeline.Result, q *query.Query) GridViewModel {
	vm := GridViewModel{
		Title:      title,
		CurrentURL: q.ToSafeURL(),
		Logic:      q.Logic.String(),
	}

	vm.Columns = q.Columns
	if len(vm.Columns) == 0 {
		vm.Columns = fields
	}
	for _, name := range vm.Columns {
		vm.Headers = append(vm.Headers, labels.Format(name))
	}

	sorted := make(map[string]sorting.Direction)
	for _, e := range q.Sorting {
		sorted[e.FieldName] = e.Direction
	}
	for _, name := range fields {
		info := ColumnInfo{
			Name:            name,
			DisplayName:     labels.Format(name),
			IsVisible:       len(q.Columns) == 0 || q.IsColumnVisible(name),
			IsGrouped:       q.IsColumnGrouped(name),
			ToggleColumnURL: q.WithColumnToggled(name),
			ToggleGroupURL:  q.WithGroupedColumnToggled(name),
			SortURL:         q.WithSortCycled(name),
		}
		if dir, ok := sorted[name]; ok {
			info.Sort = dir.String()
		}
		vm.AllColumns = append(vm.AllColumns, info)
	}

	for _, f := range q.Filters {
		label := labels.Format(f.FieldName) + " " + labels.Format(f.Condition.Name)
		if s := f.SearchValue.String(); s != "" {
			label += " " + s
		}
		vm.Filters = append(vm.Filters, FilterChip{
			Field:     f.FieldName,
			Label:     label,
			RemoveURL: q.WithoutFilters(f.FieldName),
		})
	}

	view := res.View
	summaries := aggregates.ForTree(&view.Tree, q.Aggregates)
	for _, r := range view.Rows {
		if n := view.Header(r); n != nil {
			row := headerRow(n, q)
			if summaries != nil {
				row.Aggregates = summaries[r.Node].Format(q.Aggregates)
			}
			vm.Rows = append(vm.Rows, row)
			continue
		}
		row := RowModel{
			Cells:  make([]string, len(vm.Columns)),
			Values: make([]records.Value, len(vm.Columns)),
		}
		for i, name := range vm.Columns {
			v := r.Record.Lookup(name)
			row.Values[i] = v
			row.Cells[i] = v.String()
		}
		vm.Rows = append(vm.Rows, row)
	}

	if p := res.Paging; p != nil {
		vm.Paged = true
		vm.PageIndex = p.PageIndex
		vm.RecordsPerPage = p.RecordsPerPage
		vm.TotalPages = p.TotalPages
		vm.TotalRows = p.TotalRecords
		vm.PageAdjusted = p.Err != paging.None
		if q.Paging != nil && q.Paging.RecordsPerPage > 0 {
			vm.HasPrev = p.PageIndex > 0
			vm.HasNext = p.PageIndex < p.TotalPages-1
			if vm.HasPrev {
				vm.PrevURL = q.WithPage(p.PageIndex-1, q.Paging.RecordsPerPage)
			}
			if vm.HasNext {
				vm.NextURL = q.WithPage(p.PageIndex+1, q.Paging.RecordsPerPage)
			}
		}
	} else {
		vm.TotalRows = len(view.Rows)
	}

	return vm
}

func headerRow(n *grouping.Node, q *query.Query) RowModel {
	value := n.Value().String()
	if n.Value().IsNull() {
		value = "(empty)"
	}
	return RowModel{
		IsHeader:  true,
		Level:     n.Level,
		Field:     n.FieldName(),
		Label:     labels.Format(n.FieldName()) + ": " + value,
		Count:     n.Count(),
		Expanded:  n.Expanded,
		ToggleURL: q.WithExpandedToggled(n.Path),
	}
}
